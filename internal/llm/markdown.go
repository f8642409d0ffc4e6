package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// cleanMarkdownWrapper strips a ```json or ``` fence around a response.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```")
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		// Drop the language tag line.
		content = content[i+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// CleanText removes markdown fences and surrounding quotes from prose output.
func CleanText(content string) string {
	content = cleanMarkdownWrapper(content)
	if len(content) >= 2 && content[0] == '"' && content[len(content)-1] == '"' {
		content = content[1 : len(content)-1]
	}
	return strings.TrimSpace(content)
}

// DecodeJSON extracts the outermost JSON object from content and decodes it into out.
func DecodeJSON(content string, out any) error {
	content = cleanMarkdownWrapper(content)
	if err := json.Unmarshal([]byte(content), out); err == nil {
		return nil
	}

	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}
