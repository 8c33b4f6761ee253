// Package extract turns uploaded files and URLs into source text.
package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// MaxFileSize is the largest file accepted for extraction.
const MaxFileSize = 10 << 20 // 10 MiB

var (
	ErrFileTooLarge = errors.New("file too large")
	ErrLegacyFormat = errors.New("legacy .doc format not supported")
	ErrInvalidDocx  = errors.New("invalid docx file")
	ErrEmptyInput   = errors.New("empty input")
)

// File is an uploaded file. Size and MIMEType are known without reading.
type File interface {
	Name() string
	Size() int64
	// MIMEType is the type reported by the host, or "" when unknown.
	MIMEType() string
	Open() (io.ReadCloser, error)
}

// Remote performs model-backed extraction.
type Remote interface {
	FileToText(ctx context.Context, data, mimeType, sourceLang string) (string, error)
	URLToText(ctx context.Context, url string) (string, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Files
// ─────────────────────────────────────────────────────────────────────────────

type pathFile struct {
	path string
	size int64
}

// FromPath stats a file on disk. The content is read only on Open.
func FromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &pathFile{path: path, size: info.Size()}, nil
}

func (f *pathFile) Name() string                 { return filepath.Base(f.path) }
func (f *pathFile) Size() int64                  { return f.size }
func (f *pathFile) MIMEType() string             { return "" }
func (f *pathFile) Open() (io.ReadCloser, error) { return os.Open(f.path) }

type bytesFile struct {
	name     string
	mimeType string
	data     []byte
}

// FromBytes wraps an in-memory upload.
func FromBytes(name, mimeType string, data []byte) File {
	return &bytesFile{name: name, mimeType: mimeType, data: data}
}

func (f *bytesFile) Name() string     { return f.name }
func (f *bytesFile) Size() int64      { return int64(len(f.data)) }
func (f *bytesFile) MIMEType() string { return f.mimeType }
func (f *bytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Extractor
// ─────────────────────────────────────────────────────────────────────────────

// Kind is how a file is handled.
type Kind int

const (
	KindRemote Kind = iota // sent to the model
	KindText               // decoded locally
	KindDocx               // parsed locally
	KindLegacyDoc          // rejected
)

// Classify returns the handling for name by its extension.
func Classify(name string) Kind {
	switch ext(name) {
	case "txt":
		return KindText
	case "docx":
		return KindDocx
	case "doc":
		return KindLegacyDoc
	default:
		return KindRemote
	}
}

// Extractor dispatches files to local parsers or the remote model.
type Extractor struct {
	remote Remote
}

// New creates an Extractor.
func New(remote Remote) *Extractor {
	return &Extractor{remote: remote}
}

// FromFile extracts the text of f. sourceLang is passed to the remote model
// as a hint.
func (e *Extractor) FromFile(ctx context.Context, f File, sourceLang string) (string, error) {
	if f.Size() > MaxFileSize {
		return "", ErrFileTooLarge
	}

	kind := Classify(f.Name())
	if kind == KindLegacyDoc {
		return "", ErrLegacyFormat
	}

	data, err := readAll(f)
	if err != nil {
		return "", err
	}

	switch kind {
	case KindText:
		return DecodeText(data)
	case KindDocx:
		text, err := DocxText(data)
		if err != nil {
			slog.Warn("parse docx", "name", f.Name(), "error", err)
			return "", ErrInvalidDocx
		}
		return text, nil
	}

	mimeType := f.MIMEType()
	if mimeType == "" {
		mimeType = InferMIME(f.Name(), data)
	}
	return e.remote.FileToText(ctx, base64.StdEncoding.EncodeToString(data), mimeType, sourceLang)
}

// FromURL extracts the main content of the page at url.
func (e *Extractor) FromURL(ctx context.Context, url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", ErrEmptyInput
	}
	return e.remote.URLToText(ctx, url)
}

func readAll(f File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer rc.Close()

	// Read one byte past the limit in case Size under-reported.
	data, err := io.ReadAll(io.LimitReader(rc, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

func ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
