package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"go.aimuz.me/omni/internal/types"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// geminiCompleter implements Completer and Generator for the Gemini API.
type geminiCompleter struct {
	cfg completerConfig
}

// Gemini request/response types
type geminiRequest struct {
	Contents          []geminiContent   `json:"contents"`
	GenerationConfig  geminiConfig      `json:"generationConfig,omitempty"`
	SystemInstruction *geminiSystemInst `json:"systemInstruction,omitempty"`
	Tools             []geminiTool      `json:"tools,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *geminiBlob `json:"inlineData,omitempty"`
}

type geminiBlob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type geminiConfig struct {
	MaxOutputTokens int             `json:"maxOutputTokens,omitempty"`
	Temperature     float64         `json:"temperature,omitempty"`
	ThinkingConfig  *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type geminiSystemInst struct {
	Parts []geminiPart `json:"parts"`
}

type geminiResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	UsageMetadata  *geminiUsage          `json:"usageMetadata,omitempty"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
	Error          *geminiError          `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// buildRequest constructs the Gemini API request body from messages.
func (c *geminiCompleter) buildRequest(messages []Message) geminiRequest {
	var parts []geminiContent
	var systemPrompt string

	for _, msg := range messages {
		if msg.Role == "system" {
			if msg.Content != "" {
				systemPrompt += msg.Content + "\n"
			}
			continue
		}

		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}

		parts = append(parts, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: msg.Content}},
		})
	}

	req := geminiRequest{
		Contents:         parts,
		GenerationConfig: c.generationConfig(),
	}

	if systemPrompt != "" {
		req.SystemInstruction = &geminiSystemInst{
			Parts: []geminiPart{{Text: systemPrompt}},
		}
	}

	return req
}

// buildContentRequest constructs a single-turn multimodal request.
func (c *geminiCompleter) buildContentRequest(in ContentRequest) geminiRequest {
	parts := make([]geminiPart, 0, len(in.Parts))
	for _, p := range in.Parts {
		gp := geminiPart{Text: p.Text}
		if p.InlineData != nil {
			gp.InlineData = &geminiBlob{MIMEType: p.InlineData.MIMEType, Data: p.InlineData.Data}
		}
		parts = append(parts, gp)
	}

	req := geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: c.generationConfig(),
	}
	if in.GoogleSearch {
		req.Tools = []geminiTool{{GoogleSearch: &struct{}{}}}
	}
	return req
}

func (c *geminiCompleter) generationConfig() geminiConfig {
	cfg := geminiConfig{
		MaxOutputTokens: c.cfg.maxTokens,
		Temperature:     c.cfg.temperature,
	}
	if c.cfg.disableThinking {
		cfg.ThinkingConfig = &thinkingConfig{ThinkingBudget: 0}
	}
	return cfg
}

// baseURL returns the configured or default base URL.
func (c *geminiCompleter) baseURL() string {
	if c.cfg.baseURL != "" {
		return strings.TrimRight(c.cfg.baseURL, "/")
	}
	return defaultGeminiBaseURL
}

func (c *geminiCompleter) Complete(ctx context.Context, messages []Message) (string, types.Usage, error) {
	return c.do(ctx, c.buildRequest(messages))
}

func (c *geminiCompleter) Generate(ctx context.Context, req ContentRequest) (string, types.Usage, error) {
	return c.do(ctx, c.buildContentRequest(req))
}

func (c *geminiCompleter) do(ctx context.Context, reqBody geminiRequest) (string, types.Usage, error) {
	url := fmt.Sprintf("%s/%s:generateContent", c.baseURL(), c.cfg.model)
	header := http.Header{"X-Goog-Api-Key": {c.cfg.apiKey}}

	var geminiResp geminiResponse
	status, raw, err := c.cfg.postJSON(ctx, url, header, reqBody, &geminiResp)
	if err != nil {
		return "", types.Usage{}, err
	}
	if geminiResp.Error != nil {
		return "", types.Usage{}, fmt.Errorf("api error: %d - %s", geminiResp.Error.Code, geminiResp.Error.Message)
	}
	if status != http.StatusOK {
		return "", types.Usage{}, statusError(status, raw)
	}

	if len(geminiResp.Candidates) == 0 {
		if fb := geminiResp.PromptFeedback; fb != nil && fb.BlockReason != "" {
			return "", types.Usage{}, fmt.Errorf("prompt blocked: %s", fb.BlockReason)
		}
		return "", types.Usage{}, fmt.Errorf("no candidates returned")
	}

	cand := geminiResp.Candidates[0]
	if cand.FinishReason != "" && cand.FinishReason != "STOP" {
		slog.Warn("gemini finished early", "reason", cand.FinishReason, "model", c.cfg.model)
	}

	// Grounded answers arrive split across several text parts.
	var text strings.Builder
	for _, p := range cand.Content.Parts {
		text.WriteString(p.Text)
	}

	return text.String(), geminiToUsage(geminiResp.UsageMetadata), nil
}

// geminiToUsage converts Gemini usage metadata to types.Usage.
func geminiToUsage(u *geminiUsage) types.Usage {
	if u == nil {
		return types.Usage{}
	}
	return types.Usage{
		PromptTokens:     u.PromptTokenCount,
		CompletionTokens: u.CandidatesTokenCount,
		TotalTokens:      u.TotalTokenCount,
	}
}
