package extract

import "github.com/gabriel-vasile/mimetype"

var extMIME = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"mp3":  "audio/mp3",
	"wav":  "audio/wav",
	"aac":  "audio/aac",
	"flac": "audio/flac",
	"mp4":  "video/mp4",
	"mov":  "video/mp4", // model rejects video/quicktime
	"avi":  "video/avi",
	"webm": "video/webm",
	"mpeg": "video/mpeg",
	"mpg":  "video/mpg",
}

// InferMIME returns the MIME type for a file whose host type is unknown:
// by extension first, then by sniffing data.
func InferMIME(name string, data []byte) string {
	if m, ok := extMIME[ext(name)]; ok {
		return m
	}
	return mimetype.Detect(data).String()
}
