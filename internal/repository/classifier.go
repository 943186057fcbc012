package repository

import (
	"mime"
	"path/filepath"
	"strings"
)

// Classifier supplies the category directory and MIME type of an artifact
// from its file name.
type Classifier interface {
	Classify(name string) (category, mimeType string)
}

// ExtensionClassifier classifies by file extension using the system MIME table.
type ExtensionClassifier struct{}

var extraTypes = map[string]string{
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".opus": "audio/opus",
	".webp": "image/webp",
	".avif": "image/avif",
	".srt":  "application/x-subrip",
	".vtt":  "text/vtt",
}

func (ExtensionClassifier) Classify(name string) (string, string) {
	ext := strings.ToLower(filepath.Ext(name))
	mimeType, ok := extraTypes[ext]
	if !ok {
		mimeType = mime.TypeByExtension(ext)
	}
	if mimeType == "" {
		return "other", "application/octet-stream"
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	switch major, _, _ := strings.Cut(mimeType, "/"); major {
	case "video", "audio", "image":
		return major, mimeType
	}
	if ext == ".srt" || ext == ".vtt" {
		return "subtitle", mimeType
	}
	return "other", mimeType
}
