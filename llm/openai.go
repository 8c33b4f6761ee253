package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.aimuz.me/omni/internal/types"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	chatPath       = "/chat/completions"
)

// openaiCompleter implements Completer for OpenAI and compatible APIs.
type openaiCompleter struct {
	cfg          completerConfig
	isCompatible bool
}

type openaiRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
	Error   *openaiError   `json:"error,omitempty"`
}

type openaiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}

type openaiMessage struct {
	Content string `json:"content"`
}

type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// chatURL returns the completions endpoint. Compatible providers may give
// either the API root or the full endpoint.
func (c *openaiCompleter) chatURL() string {
	base := defaultBaseURL
	if c.isCompatible && c.cfg.baseURL != "" {
		base = strings.TrimRight(c.cfg.baseURL, "/")
	}
	if strings.HasSuffix(base, chatPath) {
		return base
	}
	return base + chatPath
}

func (c *openaiCompleter) Complete(ctx context.Context, messages []Message) (string, types.Usage, error) {
	reqBody := openaiRequest{
		Model:       c.cfg.model,
		Messages:    messages,
		MaxTokens:   c.cfg.maxTokens,
		Temperature: c.cfg.temperature,
	}
	header := http.Header{"Authorization": {"Bearer " + c.cfg.apiKey}}

	var chatResp openaiResponse
	status, raw, err := c.cfg.postJSON(ctx, c.chatURL(), header, reqBody, &chatResp)
	if err != nil {
		return "", types.Usage{}, err
	}
	if chatResp.Error != nil {
		return "", types.Usage{}, fmt.Errorf("api error: %d - %s", status, chatResp.Error.Message)
	}
	if status != http.StatusOK {
		return "", types.Usage{}, statusError(status, raw)
	}
	if len(chatResp.Choices) == 0 {
		return "", types.Usage{}, fmt.Errorf("no choices")
	}

	usage := types.Usage{
		PromptTokens:     chatResp.Usage.PromptTokens,
		CompletionTokens: chatResp.Usage.CompletionTokens,
		TotalTokens:      chatResp.Usage.TotalTokens,
	}
	return chatResp.Choices[0].Message.Content, usage, nil
}
