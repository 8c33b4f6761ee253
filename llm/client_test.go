package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type captured struct {
	path    string
	headers http.Header
	body    []byte
}

func newServer(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.headers = r.Header.Clone()
		got.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestGeminiComplete(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{
		"candidates": [{"content": {"parts": [{"text": "Hello"}]}, "finishReason": "STOP"}],
		"usageMetadata": {"promptTokenCount": 5, "candidatesTokenCount": 1, "totalTokenCount": 6}
	}`)

	c := NewCompleter("gemini", "key", srv.URL+"/", "gemini-test", Options{MaxTokens: 100, DisableThinking: true})
	text, usage, err := c.Complete(context.Background(), []Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "你好"},
	})
	require.NoError(t, err)
	require.Equal(t, "Hello", text)
	require.Equal(t, 6, usage.TotalTokens)

	require.Equal(t, "/gemini-test:generateContent", got.path)
	require.Equal(t, "key", got.headers.Get("x-goog-api-key"))

	var req geminiRequest
	require.NoError(t, json.Unmarshal(got.body, &req))
	require.Len(t, req.Contents, 1)
	require.Equal(t, "user", req.Contents[0].Role)
	require.NotNil(t, req.SystemInstruction)
	require.Equal(t, "be brief\n", req.SystemInstruction.Parts[0].Text)
	require.NotNil(t, req.GenerationConfig.ThinkingConfig)
	require.Equal(t, 100, req.GenerationConfig.MaxOutputTokens)
	require.Empty(t, req.Tools)
}

func TestGeminiGenerate(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{
		"candidates": [{"content": {"parts": [{"text": "part one, "}, {"text": "part two"}]}}]
	}`)

	g := NewGenerator("key", srv.URL, "gemini-test", Options{})
	text, _, err := g.Generate(context.Background(), ContentRequest{
		Parts: []Part{
			{InlineData: &Blob{MIMEType: "application/pdf", Data: "JVBERi0="}},
			{Text: "extract"},
		},
		GoogleSearch: true,
	})
	require.NoError(t, err)
	require.Equal(t, "part one, part two", text)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(got.body, &raw))
	contents := raw["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2)
	inline := parts[0].(map[string]any)["inlineData"].(map[string]any)
	require.Equal(t, "application/pdf", inline["mimeType"])
	require.Equal(t, "JVBERi0=", inline["data"])
	require.Equal(t, "extract", parts[1].(map[string]any)["text"])

	tools := raw["tools"].([]any)
	require.Len(t, tools, 1)
	require.Contains(t, tools[0].(map[string]any), "googleSearch")
}

func TestGeminiErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  string
		want   string
	}{
		{"api error", http.StatusBadRequest, `{"error": {"code": 400, "message": "bad key"}}`, "bad key"},
		{"non-json", http.StatusBadGateway, `upstream down`, "502"},
		{"blocked", http.StatusOK, `{"candidates": [], "promptFeedback": {"blockReason": "SAFETY"}}`, "SAFETY"},
		{"empty", http.StatusOK, `{"candidates": []}`, "no candidates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.reply)
			g := NewGenerator("key", srv.URL, "m", Options{})
			_, _, err := g.Generate(context.Background(), ContentRequest{Parts: []Part{{Text: "x"}}})
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestOpenAIComplete(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{
		"choices": [{"message": {"content": "Bonjour"}}],
		"usage": {"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5}
	}`)

	c := NewCompleter("openai-compatible", "sk", srv.URL+"/v1/", "gpt-test", Options{Temperature: 0.3})
	text, usage, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	require.Equal(t, "Bonjour", text)
	require.Equal(t, 5, usage.TotalTokens)
	require.Equal(t, "/v1/chat/completions", got.path)
	require.Equal(t, "Bearer sk", got.headers.Get("Authorization"))

	var req openaiRequest
	require.NoError(t, json.Unmarshal(got.body, &req))
	require.Equal(t, "gpt-test", req.Model)
	require.InDelta(t, 0.3, req.Temperature, 1e-9)
}

func TestOpenAIChatURL(t *testing.T) {
	full := &openaiCompleter{cfg: completerConfig{baseURL: "https://x.test/v1/chat/completions"}, isCompatible: true}
	require.Equal(t, "https://x.test/v1/chat/completions", full.chatURL())

	// Plain OpenAI ignores the base URL.
	plain := &openaiCompleter{cfg: completerConfig{baseURL: "https://x.test/v1"}}
	require.Equal(t, defaultBaseURL+chatPath, plain.chatURL())
}

func TestOpenAIError(t *testing.T) {
	srv, _ := newServer(t, http.StatusUnauthorized, `{"error": {"type": "auth", "message": "invalid key"}}`)
	c := NewCompleter("openai-compatible", "sk", srv.URL, "m", Options{})
	_, _, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.ErrorContains(t, err, "invalid key")
}

func TestClaudeComplete(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{
		"content": [{"type": "thinking", "text": "hmm"}, {"type": "text", "text": "Hola"}],
		"usage": {"input_tokens": 4, "output_tokens": 1}
	}`)

	c := NewCompleter("claude", "ck", srv.URL, "claude-test", Options{})
	text, usage, err := c.Complete(context.Background(), []Message{
		{Role: "system", Content: "translate"},
		{Role: "user", Content: "hi"},
	})
	require.NoError(t, err)
	require.Equal(t, "Hola", text)
	require.Equal(t, 5, usage.TotalTokens)
	require.Equal(t, "/messages", got.path)
	require.Equal(t, "ck", got.headers.Get("x-api-key"))

	var req claudeRequest
	require.NoError(t, json.Unmarshal(got.body, &req))
	require.Equal(t, "translate", req.System)
	require.Equal(t, 1024, req.MaxTokens)
	require.Len(t, req.Messages, 1)
}

func TestClaudeError(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadRequest, `{"error": {"type": "invalid_request_error", "message": "bad model"}}`)
	c := NewCompleter("claude", "ck", srv.URL, "m", Options{})
	_, _, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.ErrorContains(t, err, "bad model")
}
