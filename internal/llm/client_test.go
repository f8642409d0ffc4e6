package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		apiKey   string
		wantErr  bool
	}{
		{name: "openai", provider: "openai", apiKey: "k"},
		{name: "anthropic", provider: "Anthropic", apiKey: "k"},
		{name: "gemini", provider: "gemini", apiKey: "k"},
		{name: "google alias", provider: "google", apiKey: "k"},
		{name: "missing key", provider: "openai", wantErr: true},
		{name: "unknown provider", provider: "claudecode", apiKey: "k", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(Config{Provider: tt.provider, APIKey: tt.apiKey})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestOpenAIClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body["model"])
		messages, ok := body["messages"].([]any)
		require.True(t, ok)
		assert.Len(t, messages, 2)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gpt-test","choices":[{"message":{"role":"assistant","content":"Nice week."}}],"usage":{"prompt_tokens":12,"completion_tokens":3}}`))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "test-key", Model: "gpt-test", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{System: "be kind", Prompt: "summarize"})
	require.NoError(t, err)
	assert.Equal(t, "Nice week.", resp.Text)
	assert.Equal(t, 12, resp.InputTokens)
	assert.Equal(t, 3, resp.OutputTokens)
}

func TestAnthropicClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "be kind", body["system"])
		assert.EqualValues(t, 50, body["max_tokens"])

		_, _ = w.Write([]byte(`{"model":"claude-test","content":[{"type":"text","text":"Great "},{"type":"text","text":"job."}],"usage":{"input_tokens":8,"output_tokens":2}}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{System: "be kind", Prompt: "summarize", MaxTokens: 50})
	require.NoError(t, err)
	assert.Equal(t, "Great job.", resp.Text)
	assert.Equal(t, "claude-test", resp.Model)
}

func TestGeminiClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "systemInstruction")

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Keep going."}]}}],"usageMetadata":{"promptTokenCount":5,"candidatesTokenCount":2}}`))
	}))
	defer server.Close()

	client, err := newGeminiClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{System: "be kind", Prompt: "summarize"})
	require.NoError(t, err)
	assert.Equal(t, "Keep going.", resp.Text)
	assert.Equal(t, "gemini-2.0-flash", resp.Model)
	assert.Equal(t, 5, resp.InputTokens)
}

func TestProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
		status int
	}{
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"bad"}`, errMsg: "status 400"},
		{name: "empty choices", status: http.StatusOK, body: `{"choices":[]}`, errMsg: "no completion choices"},
		{name: "invalid json", status: http.StatusOK, body: `not json`, errMsg: "failed to parse response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), Request{Prompt: "hi"})
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.errMsg), err.Error())
		})
	}
}
