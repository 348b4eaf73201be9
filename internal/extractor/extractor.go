// Package extractor pulls plain text out of uploaded transcript documents.
package extractor

import (
	"errors"
	"fmt"

	"github.com/BerylCAtieno/casevia/internal/models"
)

// ErrNoText means the document parsed but held no usable text.
var ErrNoText = errors.New("no text could be extracted")

// Extract returns the transcript text of a PDF, DOCX or TXT document.
func Extract(contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty file")
	}
	switch contentType {
	case models.ContentTypePDF:
		return ExtractPDF(data)
	case models.ContentTypeDOCX:
		return ExtractDOCX(data)
	case models.ContentTypeTXT:
		return ExtractTXT(data)
	}
	return "", fmt.Errorf("unsupported transcript type %q", contentType)
}
