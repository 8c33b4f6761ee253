// Package stt provides speech recognition capabilities used for voice input.
package stt

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned by Start when no recognizer is configured.
var ErrUnavailable = errors.New("speech recognition unavailable")

// TranscribeResult represents the result of a transcription.
type TranscribeResult struct {
	Text     string    `json:"text"`     // Transcribed text
	Language string    `json:"language"` // Detected language code
	Segments []Segment `json:"segments"` // Time-stamped segments
}

// Segment represents a time-stamped audio segment.
type Segment struct {
	Text  string        `json:"text"`
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
}

// Transcriber converts a recorded clip to text.
type Transcriber interface {
	// Transcribe converts encoded audio to text.
	// language: ISO-639-1 code, empty for auto-detect
	Transcribe(ctx context.Context, audio []byte, mimeType, language string) (*TranscribeResult, error)
}

// Request configures one recognition session.
type Request struct {
	Locale          string // BCP 47 tag, e.g. "zh-CN"
	Interim         bool
	MaxAlternatives int
}

// Handler receives the outcome of a recognition session.
// OnEnd fires exactly once per session, after OnResult or OnError.
type Handler struct {
	OnResult func(text string)
	OnError  func(err error)
	OnEnd    func()
}

func (h Handler) result(text string) {
	if h.OnResult != nil {
		h.OnResult(text)
	}
}

func (h Handler) fail(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}

func (h Handler) end() {
	if h.OnEnd != nil {
		h.OnEnd()
	}
}

// Recognition is a running recognition session.
type Recognition interface {
	// Abort stops the session. Only OnEnd fires afterwards.
	Abort()
}

// Recognizer starts recognition sessions.
type Recognizer interface {
	Available() bool
	Start(ctx context.Context, req Request, h Handler) (Recognition, error)
}
