package analyzer

import (
	"strings"

	"github.com/BerylCAtieno/casevia/internal/models"
)

// FormatTranscript renders diarized utterances as "Speaker X: text" lines.
// Without utterances the plain transcript is returned unchanged.
func FormatTranscript(transcript string, utterances []models.Utterance) string {
	if len(utterances) == 0 {
		return transcript
	}

	var b strings.Builder
	for i, u := range utterances {
		if i > 0 {
			b.WriteString("\n\n")
		}
		speaker := strings.TrimSpace(u.Speaker)
		if speaker == "" {
			speaker = "Unknown"
		}
		b.WriteString("Speaker ")
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(u.Text))
	}
	return b.String()
}
