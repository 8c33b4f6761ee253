package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.aimuz.me/omni/llm"
)

var (
	// ErrProcessFile wraps failures of model-backed file extraction.
	ErrProcessFile = errors.New("failed to process file")
	// ErrExtractURL wraps failures of URL extraction.
	ErrExtractURL = errors.New("failed to extract content from URL")
)

const (
	promptMedia = "Transcribe the audio/video content into text. If the audio is in Chinese, transcribe it strictly into Simplified Chinese. If it is another language, transcribe it in that language."
	promptPDF   = "Extract all text from this PDF document."
	promptFile  = "Analyze the provided file and extract all text content from it. Maintain the original formatting as much as possible."
	promptURL   = "Access the following URL: %s.\nExtract the main content (text or transcript of audio/video) from this page.\nReturn ONLY the extracted content."
)

// RemoteExtractor extracts text from files and URLs with a multimodal model.
type RemoteExtractor struct {
	generator func() (llm.Generator, error)
}

// NewRemoteExtractor creates a RemoteExtractor. generator is called per
// request so configuration changes apply immediately.
func NewRemoteExtractor(generator func() (llm.Generator, error)) *RemoteExtractor {
	return &RemoteExtractor{generator: generator}
}

// FileToText sends base64 data of the given MIME type to the model.
func (r *RemoteExtractor) FileToText(ctx context.Context, data, mimeType, sourceLang string) (string, error) {
	gen, err := r.generator()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProcessFile, err)
	}

	slog.Debug("extract file", "mime", mimeType, "source", sourceLang, "bytes", len(data))
	text, usage, err := gen.Generate(ctx, llm.ContentRequest{
		Parts: []llm.Part{
			{InlineData: &llm.Blob{MIMEType: mimeType, Data: data}},
			{Text: filePrompt(mimeType)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProcessFile, err)
	}
	slog.Debug("file extracted", "mime", mimeType, "tokens", usage.TotalTokens)
	return text, nil
}

// URLToText asks the model to browse url and return its main content.
func (r *RemoteExtractor) URLToText(ctx context.Context, url string) (string, error) {
	gen, err := r.generator()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractURL, err)
	}

	text, _, err := gen.Generate(ctx, llm.ContentRequest{
		Parts:        []llm.Part{{Text: fmt.Sprintf(promptURL, url)}},
		GoogleSearch: true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractURL, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no content found", ErrExtractURL)
	}
	return text, nil
}

func filePrompt(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "audio/"), strings.HasPrefix(mimeType, "video/"):
		return promptMedia
	case mimeType == "application/pdf":
		return promptPDF
	default:
		return promptFile
	}
}
