// Package llm provides language model clients used to narrate spending facts.
// It supports OpenAI, Anthropic and Google Gemini, with retry logic, rate
// limiting and response caching layered on top in Service.
package llm
