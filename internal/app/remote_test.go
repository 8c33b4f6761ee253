package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"go.aimuz.me/omni/internal/types"
	"go.aimuz.me/omni/llm"
)

type fakeGenerator struct {
	mu       sync.Mutex
	text     string
	err      error
	requests []llm.ContentRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req llm.ContentRequest) (string, types.Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.text, types.Usage{}, f.err
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func staticGenerator(g llm.Generator) func() (llm.Generator, error) {
	return func() (llm.Generator, error) { return g, nil }
}

func TestFilePrompt(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"audio/mp3", promptMedia},
		{"video/mp4", promptMedia},
		{"application/pdf", promptPDF},
		{"image/png", promptFile},
		{"", promptFile},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, filePrompt(tt.mime), tt.mime)
	}
}

func TestRemoteExtractor_FileToText(t *testing.T) {
	gen := &fakeGenerator{text: "extracted"}
	r := NewRemoteExtractor(staticGenerator(gen))

	text, err := r.FileToText(context.Background(), "QUJD", "application/pdf", "zh")
	require.NoError(t, err)
	require.Equal(t, "extracted", text)

	req := gen.requests[0]
	require.False(t, req.GoogleSearch)
	require.Len(t, req.Parts, 2)
	require.Equal(t, &llm.Blob{MIMEType: "application/pdf", Data: "QUJD"}, req.Parts[0].InlineData)
	require.Equal(t, promptPDF, req.Parts[1].Text)

	gen.err = errors.New("400")
	_, err = r.FileToText(context.Background(), "QUJD", "image/png", "zh")
	require.ErrorIs(t, err, ErrProcessFile)
}

func TestRemoteExtractor_URLToText(t *testing.T) {
	gen := &fakeGenerator{text: "page body"}
	r := NewRemoteExtractor(staticGenerator(gen))

	text, err := r.URLToText(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.Equal(t, "page body", text)
	require.True(t, gen.requests[0].GoogleSearch)
	require.Contains(t, gen.requests[0].Parts[0].Text, "https://example.com")

	gen.text = "  "
	_, err = r.URLToText(context.Background(), "https://example.com")
	require.ErrorIs(t, err, ErrExtractURL)
}

func TestRemoteExtractor_NotConfigured(t *testing.T) {
	r := NewRemoteExtractor(func() (llm.Generator, error) { return nil, errors.New("extraction not configured") })

	_, err := r.FileToText(context.Background(), "", "application/pdf", "en")
	require.ErrorIs(t, err, ErrProcessFile)

	_, err = r.URLToText(context.Background(), "https://example.com")
	require.ErrorIs(t, err, ErrExtractURL)
}
