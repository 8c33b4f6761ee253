// Package llm provides HTTP clients for LLM API calls.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.aimuz.me/omni/internal/types"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options configures LLM completion behavior.
type Options struct {
	MaxTokens       int
	Temperature     float64
	DisableThinking bool // For Gemini: set thinkingBudget to 0
	HTTPClient      *http.Client
}

// Completer performs chat completions.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, types.Usage, error)
}

// Blob is inline binary content, base64 encoded.
type Blob struct {
	MIMEType string
	Data     string
}

// Part is one piece of a multimodal prompt: text or inline data.
type Part struct {
	Text       string
	InlineData *Blob
}

// ContentRequest is a single-turn multimodal generation request.
type ContentRequest struct {
	Parts []Part
	// GoogleSearch enables search grounding so the model can browse.
	GoogleSearch bool
}

// Generator produces text from multimodal content.
type Generator interface {
	Generate(ctx context.Context, req ContentRequest) (string, types.Usage, error)
}

// completerConfig holds all parameters needed by completers.
// Memory layout optimized: pointers/slices first, then 64-bit, then smaller.
type completerConfig struct {
	http            *http.Client
	apiKey          string
	baseURL         string
	model           string
	maxTokens       int
	temperature     float64
	disableThinking bool
}

func newConfig(apiKey, baseURL, model string, opts Options) completerConfig {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return completerConfig{
		http:            client,
		apiKey:          apiKey,
		baseURL:         baseURL,
		model:           model,
		maxTokens:       opts.MaxTokens,
		temperature:     opts.Temperature,
		disableThinking: opts.DisableThinking,
	}
}

// NewCompleter creates a Completer for the given provider type.
func NewCompleter(apiType, apiKey, baseURL, model string, opts Options) Completer {
	cfg := newConfig(apiKey, baseURL, model, opts)

	switch apiType {
	case "gemini":
		return &geminiCompleter{cfg: cfg}
	case "claude":
		return &claudeCompleter{cfg: cfg}
	case "openai", "openai-compatible":
		return &openaiCompleter{cfg: cfg, isCompatible: apiType == "openai-compatible"}
	default:
		// Default to OpenAI format
		return &openaiCompleter{cfg: cfg}
	}
}

// NewGenerator creates a Gemini-backed Generator.
func NewGenerator(apiKey, baseURL, model string, opts Options) Generator {
	return &geminiCompleter{cfg: newConfig(apiKey, baseURL, model, opts)}
}

// postJSON sends body as JSON to url and decodes the reply into out.
// It returns the HTTP status; callers inspect their own error fields
// before treating a non-200 status as a failure.
func (cfg completerConfig) postJSON(ctx context.Context, url string, header http.Header, body, out any) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := cfg.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, raw, statusError(resp.StatusCode, raw)
		}
		return resp.StatusCode, raw, fmt.Errorf("unmarshal response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func statusError(code int, body []byte) error {
	return fmt.Errorf("api error: %d - %s", code, body)
}
