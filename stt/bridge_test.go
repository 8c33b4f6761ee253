package stt

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"go.aimuz.me/omni/internal/types"
)

type fakeTranscriber struct {
	mu       sync.Mutex
	text     string
	err      error
	language string
	mimeType string
	calls    int
	// block, when set, is waited on before returning.
	block chan struct{}
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType, language string) (*TranscribeResult, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.language = language
	f.mimeType = mimeType
	if f.err != nil {
		return nil, f.err
	}
	return &TranscribeResult{Text: f.text}, nil
}

type recorder struct {
	mu      sync.Mutex
	results []string
	errs    []error
	ends    int
	events  []string
	starts  []types.CaptureRequest
}

func (r *recorder) handler() Handler {
	return Handler{
		OnResult: func(text string) {
			r.mu.Lock()
			r.results = append(r.results, text)
			r.mu.Unlock()
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		},
		OnEnd: func() {
			r.mu.Lock()
			r.ends++
			r.mu.Unlock()
		},
	}
}

func (r *recorder) emit(name string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
	if req, ok := data.(types.CaptureRequest); ok {
		r.starts = append(r.starts, req)
	}
}

func TestBridge_SubmitDeliversResultThenEnd(t *testing.T) {
	tr := &fakeTranscriber{text: "  你好  "}
	rec := &recorder{}
	b := NewBridge(tr, rec.emit)

	_, err := b.Start(context.Background(), Request{Locale: "zh-CN"}, rec.handler())
	require.NoError(t, err)
	require.Len(t, rec.starts, 1)
	require.Equal(t, "zh-CN", rec.starts[0].Locale)
	require.NotEmpty(t, rec.starts[0].ID)

	require.NoError(t, b.Submit(rec.starts[0].ID, []byte("clip"), "audio/webm"))
	require.Equal(t, []string{"你好"}, rec.results)
	require.Empty(t, rec.errs)
	require.Equal(t, 1, rec.ends)
	require.Equal(t, "zh", tr.language)
	require.Equal(t, "audio/webm", tr.mimeType)
	require.Zero(t, b.Pending())
}

func TestBridge_EmptyTranscriptEndsWithoutResult(t *testing.T) {
	rec := &recorder{}
	b := NewBridge(&fakeTranscriber{text: "   "}, rec.emit)

	_, err := b.Start(context.Background(), Request{Locale: "en-US"}, rec.handler())
	require.NoError(t, err)
	require.NoError(t, b.Submit(rec.starts[0].ID, []byte("clip"), "audio/webm"))

	require.Empty(t, rec.results)
	require.Equal(t, 1, rec.ends)
}

func TestBridge_TranscribeErrorFiresErrorThenEnd(t *testing.T) {
	rec := &recorder{}
	b := NewBridge(&fakeTranscriber{err: errors.New("boom")}, rec.emit)

	_, err := b.Start(context.Background(), Request{Locale: "en-US"}, rec.handler())
	require.NoError(t, err)
	require.NoError(t, b.Submit(rec.starts[0].ID, []byte("clip"), "audio/webm"))

	require.Empty(t, rec.results)
	require.Len(t, rec.errs, 1)
	require.Equal(t, 1, rec.ends)
}

func TestBridge_Fail(t *testing.T) {
	rec := &recorder{}
	b := NewBridge(&fakeTranscriber{}, rec.emit)

	_, err := b.Start(context.Background(), Request{Locale: "en-US"}, rec.handler())
	require.NoError(t, err)
	require.NoError(t, b.Fail(rec.starts[0].ID, "permission denied"))

	require.Len(t, rec.errs, 1)
	require.ErrorIs(t, rec.errs[0], ErrCapture)
	require.Equal(t, 1, rec.ends)
}

func TestBridge_AbortSuppressesLaterCallbacks(t *testing.T) {
	tr := &fakeTranscriber{text: "late"}
	rec := &recorder{}
	b := NewBridge(tr, rec.emit)

	r, err := b.Start(context.Background(), Request{Locale: "en-US"}, rec.handler())
	require.NoError(t, err)
	id := rec.starts[0].ID

	r.Abort()
	r.Abort()
	require.Equal(t, 1, rec.ends)
	require.Equal(t, []string{EventCaptureStart, EventCaptureAbort}, rec.events)

	err = b.Submit(id, []byte("clip"), "audio/webm")
	require.ErrorIs(t, err, ErrUnknownCapture)
	require.Empty(t, rec.results)
	require.Equal(t, 1, rec.ends)
	require.Zero(t, tr.calls)
}

func TestBridge_AbortDuringTranscription(t *testing.T) {
	tr := &fakeTranscriber{text: "late", block: make(chan struct{})}
	rec := &recorder{}
	b := NewBridge(tr, rec.emit)

	r, err := b.Start(context.Background(), Request{Locale: "en-US"}, rec.handler())
	require.NoError(t, err)
	id := rec.starts[0].ID

	done := make(chan error, 1)
	go func() { done <- b.Submit(id, []byte("clip"), "audio/webm") }()

	r.Abort()
	close(tr.block)
	// Submit either lost the race to Abort or finished silently.
	<-done

	require.Empty(t, rec.results)
	require.Equal(t, 1, rec.ends)
}

func TestBridge_Unavailable(t *testing.T) {
	b := NewBridge(nil, nil)
	require.False(t, b.Available())

	_, err := b.Start(context.Background(), Request{Locale: "en-US"}, Handler{})
	require.ErrorIs(t, err, ErrUnavailable)

	b.SetTranscriber(&fakeTranscriber{})
	require.True(t, b.Available())
}

func TestBridge_UnknownID(t *testing.T) {
	b := NewBridge(&fakeTranscriber{}, nil)
	require.ErrorIs(t, b.Submit("nope", nil, ""), ErrUnknownCapture)
	require.ErrorIs(t, b.Fail("nope", "x"), ErrUnknownCapture)
}

func TestBridge_SubmitPCM(t *testing.T) {
	tr := &fakeTranscriber{text: "hi"}
	rec := &recorder{}
	b := NewBridge(tr, rec.emit)

	_, err := b.Start(context.Background(), Request{Locale: "en-US"}, rec.handler())
	require.NoError(t, err)
	require.NoError(t, b.SubmitPCM(rec.starts[0].ID, []float32{0, 0.5, -0.5}, 16000))
	require.Equal(t, "audio/wav", tr.mimeType)
	require.Equal(t, []string{"hi"}, rec.results)
}
