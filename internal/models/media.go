package models

import (
	"path/filepath"
	"strings"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeTXT  = "text/plain"
)

var mediaExtensions = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".webm": "video/webm",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
}

var documentExtensions = map[string]string{
	".pdf":  ContentTypePDF,
	".docx": ContentTypeDOCX,
	".txt":  ContentTypeTXT,
}

// IsMediaContentType reports whether contentType is audio or video.
func IsMediaContentType(contentType string) bool {
	return strings.HasPrefix(contentType, "audio/") || strings.HasPrefix(contentType, "video/")
}

// IsTranscriptContentType reports whether contentType is a supported
// transcript document.
func IsTranscriptContentType(contentType string) bool {
	switch contentType {
	case ContentTypePDF, ContentTypeDOCX, ContentTypeTXT:
		return true
	}
	return false
}

// DetermineContentType resolves a content type from the file extension, with
// the reported header as fallback.
func DetermineContentType(filename, headerContentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := mediaExtensions[ext]; ok {
		return ct
	}
	if ct, ok := documentExtensions[ext]; ok {
		return ct
	}
	ct := strings.TrimSpace(strings.ToLower(headerContentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "text/txt" || ct == "application/txt" || ct == "application/x-txt" {
		return ContentTypeTXT
	}
	return ct
}
