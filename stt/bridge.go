package stt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"go.aimuz.me/omni/internal/types"
)

// Events emitted to the webview.
const (
	EventCaptureStart = "capture-start" // data: types.CaptureRequest
	EventCaptureAbort = "capture-abort" // data: capture ID
)

// ErrUnknownCapture is returned when the webview reports on a session that
// is not pending (finished, aborted, or never started).
var ErrUnknownCapture = errors.New("unknown capture session")

// ErrCapture wraps failures reported by the webview recorder.
var ErrCapture = errors.New("capture failed")

// Bridge is a Recognizer backed by the webview's microphone.
// Start asks the UI to record one utterance; the UI hands the clip back
// through Submit or reports a failure through Fail.
type Bridge struct {
	transcriber Transcriber
	emit        func(name string, data any)

	mu      sync.Mutex
	pending map[string]*capture
}

// NewBridge creates a bridge. A nil transcriber makes the bridge unavailable.
func NewBridge(t Transcriber, emit func(name string, data any)) *Bridge {
	if emit == nil {
		emit = func(string, any) {}
	}
	return &Bridge{
		transcriber: t,
		emit:        emit,
		pending:     make(map[string]*capture),
	}
}

// SetTranscriber swaps the transcriber used by future sessions.
func (b *Bridge) SetTranscriber(t Transcriber) {
	b.mu.Lock()
	b.transcriber = t
	b.mu.Unlock()
}

// Available reports whether a transcriber is configured.
func (b *Bridge) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transcriber != nil
}

// Start registers a pending session and asks the UI to record.
func (b *Bridge) Start(ctx context.Context, req Request, h Handler) (Recognition, error) {
	b.mu.Lock()
	t := b.transcriber
	if t == nil {
		b.mu.Unlock()
		return nil, ErrUnavailable
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &capture{
		id:          uuid.NewString(),
		locale:      req.Locale,
		handler:     h,
		transcriber: t,
		bridge:      b,
		ctx:         ctx,
		cancel:      cancel,
	}
	b.pending[c.id] = c
	b.mu.Unlock()

	slog.Debug("capture started", "id", c.id, "locale", c.locale)
	b.emit(EventCaptureStart, types.CaptureRequest{ID: c.id, Locale: c.locale})
	return c, nil
}

// Submit delivers a recorded clip for the given session.
// It blocks until transcription completes.
func (b *Bridge) Submit(id string, audio []byte, mimeType string) error {
	c := b.take(id)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrUnknownCapture, id)
	}

	res, err := c.transcriber.Transcribe(c.ctx, audio, mimeType, baseLanguage(c.locale))
	if !c.finish() {
		// Aborted while transcribing.
		return nil
	}
	defer c.cancel()

	if err != nil {
		slog.Warn("transcribe capture", "id", id, "error", err)
		c.handler.fail(err)
		c.handler.end()
		return nil
	}

	if text := strings.TrimSpace(res.Text); text != "" {
		c.handler.result(text)
	}
	c.handler.end()
	return nil
}

// SubmitPCM delivers mono float32 samples, encoding them as WAV first.
func (b *Bridge) SubmitPCM(id string, samples []float32, sampleRate int) error {
	wav, err := EncodeWAV(samples, sampleRate)
	if err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return b.Submit(id, wav, "audio/wav")
}

// Fail reports that the UI could not record the session.
func (b *Bridge) Fail(id, reason string) error {
	c := b.take(id)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrUnknownCapture, id)
	}
	if !c.finish() {
		return nil
	}
	c.cancel()

	c.handler.fail(fmt.Errorf("%w: %s", ErrCapture, reason))
	c.handler.end()
	return nil
}

// Pending reports the number of sessions waiting for the UI.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *Bridge) take(id string) *capture {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.pending[id]
	delete(b.pending, id)
	return c
}

func (b *Bridge) remove(id string) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

// capture is one bridge recognition session.
type capture struct {
	id          string
	locale      string
	handler     Handler
	transcriber Transcriber
	bridge      *Bridge
	ctx         context.Context
	cancel      context.CancelFunc

	mu   sync.Mutex
	done bool
}

// finish marks the session terminal. It reports false if already terminal.
func (c *capture) finish() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return false
	}
	c.done = true
	return true
}

func (c *capture) Abort() {
	if !c.finish() {
		return
	}
	c.cancel()
	c.bridge.remove(c.id)
	c.bridge.emit(EventCaptureAbort, c.id)
	c.handler.end()
}

// baseLanguage returns the language subtag of a locale ("zh-CN" -> "zh").
func baseLanguage(locale string) string {
	base, _, _ := strings.Cut(locale, "-")
	return strings.ToLower(base)
}
