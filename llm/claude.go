package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.aimuz.me/omni/internal/types"
)

const (
	defaultClaudeBaseURL = "https://api.anthropic.com/v1"
	messagesPath         = "/messages"
	anthropicVersion     = "2023-06-01"

	claudeDefaultMaxTokens = 1024
)

// claudeCompleter implements Completer for Claude API.
type claudeCompleter struct {
	cfg completerConfig
}

type claudeRequest struct {
	Model       string          `json:"model"`
	Messages    []claudeMessage `json:"messages"`
	System      string          `json:"system,omitempty"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
	Usage   *claudeUsage    `json:"usage,omitempty"`
	Error   *claudeError    `json:"error,omitempty"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type claudeError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (c *claudeCompleter) messagesURL() string {
	base := defaultClaudeBaseURL
	if c.cfg.baseURL != "" {
		base = strings.TrimRight(c.cfg.baseURL, "/")
	}
	if strings.HasSuffix(base, messagesPath) {
		return base
	}
	return base + messagesPath
}

func (c *claudeCompleter) Complete(ctx context.Context, messages []Message) (string, types.Usage, error) {
	var (
		turns  []claudeMessage
		system []string
	)
	for _, msg := range messages {
		if msg.Role == "system" {
			system = append(system, msg.Content)
			continue
		}
		turns = append(turns, claudeMessage{Role: msg.Role, Content: msg.Content})
	}

	// max_tokens is mandatory for this API.
	maxTokens := c.cfg.maxTokens
	if maxTokens == 0 {
		maxTokens = claudeDefaultMaxTokens
	}

	reqBody := claudeRequest{
		Model:       c.cfg.model,
		Messages:    turns,
		System:      strings.Join(system, "\n"),
		MaxTokens:   maxTokens,
		Temperature: c.cfg.temperature,
	}

	header := http.Header{
		"X-Api-Key":         {c.cfg.apiKey},
		"Anthropic-Version": {anthropicVersion},
	}

	var claudeResp claudeResponse
	status, raw, err := c.cfg.postJSON(ctx, c.messagesURL(), header, reqBody, &claudeResp)
	if err != nil {
		return "", types.Usage{}, err
	}
	if claudeResp.Error != nil {
		return "", types.Usage{}, fmt.Errorf("api error: %s - %s", claudeResp.Error.Type, claudeResp.Error.Message)
	}
	if status != http.StatusOK {
		return "", types.Usage{}, statusError(status, raw)
	}

	// Only text blocks carry the answer; thinking blocks are skipped.
	var text strings.Builder
	for _, block := range claudeResp.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", types.Usage{}, fmt.Errorf("no content returned")
	}

	var usage types.Usage
	if claudeResp.Usage != nil {
		usage = types.Usage{
			PromptTokens:     claudeResp.Usage.InputTokens,
			CompletionTokens: claudeResp.Usage.OutputTokens,
			TotalTokens:      claudeResp.Usage.InputTokens + claudeResp.Usage.OutputTokens,
		}
	}

	return text.String(), usage, nil
}
