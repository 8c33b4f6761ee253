// Package types provides shared type definitions for the application.
package types

// Side names one of the two text panes.
type Side string

const (
	SideNone   Side = ""
	SideSource Side = "source"
	SideTarget Side = "target"
)

// Valid reports whether s names a pane.
func (s Side) Valid() bool {
	return s == SideSource || s == SideTarget
}

// Other returns the opposite pane.
func (s Side) Other() Side {
	switch s {
	case SideSource:
		return SideTarget
	case SideTarget:
		return SideSource
	default:
		return SideNone
	}
}

// Language is one entry of the static language catalog.
type Language struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	EnglishName string `json:"englishName"`
}

// APICredential stores an API key that profiles can reference.
type APICredential struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"` // "openai", "openai-compatible", "gemini", "claude"
	BaseURL string `json:"base_url,omitempty"`
	APIKey  string `json:"api_key"`
}

// TranslationProfile selects the model and prompt used for translation.
type TranslationProfile struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	CredentialID    string  `json:"credential_id"`
	Model           string  `json:"model"`
	SystemPrompt    string  `json:"system_prompt,omitempty"`
	MaxTokens       int     `json:"max_tokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
	Active          bool    `json:"active"`
	DisableThinking bool    `json:"disable_thinking,omitempty"` // For Gemini: set thinkingBudget to 0
}

// SpeechConfig configures the transcription service used for voice input.
type SpeechConfig struct {
	Enabled      bool   `json:"enabled"`
	CredentialID string `json:"credential_id"`
	Model        string `json:"model,omitempty"`
}

// ExtractionConfig configures the multimodal model used for files and URLs.
// The credential must be of type "gemini".
type ExtractionConfig struct {
	CredentialID string `json:"credential_id"`
	Model        string `json:"model,omitempty"`
}

// DefaultMaxTokens is the default max tokens if not specified.
const DefaultMaxTokens = 1000

// DefaultTemperature is the default temperature if not specified.
const DefaultTemperature = 0.3

// TranslateRequest represents a translation request.
type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
}

// DetectResult represents the result of language detection.
type DetectResult struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	DefaultTarget string `json:"defaultTarget"`
}

// Usage represents token usage statistics from LLM API calls.
type Usage struct {
	PromptTokens     int  `json:"promptTokens"`
	CompletionTokens int  `json:"completionTokens"`
	TotalTokens      int  `json:"totalTokens"`
	CacheHit         bool `json:"cacheHit"`
}

// TranslateResult represents the result of a translation request.
type TranslateResult struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Session Types
// ─────────────────────────────────────────────────────────────────────────────

// SessionSnapshot is a copy of the session state pushed to the frontend.
type SessionSnapshot struct {
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
	SourceText string `json:"sourceText"`
	TargetText string `json:"targetText"`
	Status     string `json:"status"`
	Busy       bool   `json:"busy"`
}

// Text returns the buffer for the given side.
func (s SessionSnapshot) Text(side Side) string {
	if side == SideTarget {
		return s.TargetText
	}
	return s.SourceText
}

// Lang returns the language code for the given side.
func (s SessionSnapshot) Lang(side Side) string {
	if side == SideTarget {
		return s.TargetLang
	}
	return s.SourceLang
}

// PlaybackState reports which pane is being read aloud.
type PlaybackState struct {
	Side   Side `json:"side"` // SideNone when idle
	Paused bool `json:"paused"`
}

// Alert is a blocking user-facing message.
type Alert struct {
	Message string `json:"message"`
}

// CaptureRequest asks the frontend to record one utterance.
type CaptureRequest struct {
	ID     string `json:"id"`
	Locale string `json:"locale"`
}
