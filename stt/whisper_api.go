package stt

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultWhisperModel is used when no model is configured.
const DefaultWhisperModel = "whisper-1"

// WhisperAPI implements Transcriber using OpenAI's audio transcription API.
type WhisperAPI struct {
	client *openai.Client
	model  string
}

// WhisperAPIConfig holds configuration for WhisperAPI.
type WhisperAPIConfig struct {
	APIKey     string
	BaseURL    string // Optional, defaults to OpenAI's API
	Model      string // Optional, defaults to "whisper-1"
	HTTPClient *http.Client
}

// NewWhisperAPI creates a new WhisperAPI transcriber.
func NewWhisperAPI(cfg WhisperAPIConfig) *WhisperAPI {
	model := cfg.Model
	if model == "" {
		model = DefaultWhisperModel
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := openai.NewClient(opts...)
	return &WhisperAPI{client: &client, model: model}
}

// Transcribe uploads the clip and returns the recognized text.
func (w *WhisperAPI) Transcribe(ctx context.Context, audio []byte, mimeType, language string) (*TranscribeResult, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio")
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audio), "audio"+audioExt(mimeType), mimeType),
		Model: openai.AudioModel(w.model),
	}
	// OpenAI API does not accept 'auto', empty means auto-detect
	if language != "" && language != "auto" {
		params.Language = openai.String(language)
	}

	resp, err := w.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	return &TranscribeResult{Text: strings.TrimSpace(resp.Text), Language: language}, nil
}

// audioExt maps a recorder MIME type to the file extension the API expects.
func audioExt(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	switch strings.TrimSpace(base) {
	case "audio/webm", "video/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/flac":
		return ".flac"
	default:
		return ".wav"
	}
}
