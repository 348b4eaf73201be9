package transcriber

import (
	"errors"
	"fmt"

	"github.com/BerylCAtieno/casevia/internal/models"
)

// Provider job statuses.
const (
	statusQueued     = "queued"
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusError      = "error"
)

// DefaultErrorMessage is stored when the provider reports an error without
// a message.
const DefaultErrorMessage = "Transcription failed"

// ErrMissingText means the provider reported completion without including
// the transcript, as webhook callbacks usually do.
var ErrMissingText = errors.New("completed transcript payload has no text")

// Outcome is the validated state of a provider transcription job. It is one
// of Completed, Errored or Pending.
type Outcome interface {
	jobID() string
}

type Completed struct {
	JobID      string
	Text       string
	Utterances []models.Utterance
}

type Errored struct {
	JobID   string
	Message string
}

type Pending struct {
	JobID  string
	Status string
}

// Recognized reports whether the provider status is one this client knows.
// Other non-empty statuses are kept pending and polled again.
func (p Pending) Recognized() bool {
	return p.Status == statusQueued || p.Status == statusProcessing
}

func (c Completed) jobID() string { return c.JobID }
func (e Errored) jobID() string   { return e.JobID }
func (p Pending) jobID() string   { return p.JobID }

// Payload is the transcript object returned by the provider's poll endpoint
// and posted to webhooks.
type Payload struct {
	ID           string             `json:"id"`
	TranscriptID string             `json:"transcript_id"`
	Status       string             `json:"status"`
	Text         *string            `json:"text"`
	Utterances   []utterancePayload `json:"utterances"`
	Error        string             `json:"error"`
}

type utterancePayload struct {
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Confidence float64 `json:"confidence"`
}

// JobID returns the provider job id; webhooks carry it as transcript_id.
func (p Payload) JobID() string {
	if p.TranscriptID != "" {
		return p.TranscriptID
	}
	return p.ID
}

// ParseOutcome validates a provider payload into an Outcome. Payloads
// without an id or status are rejected; unknown statuses are pending.
func ParseOutcome(p Payload) (Outcome, error) {
	id := p.JobID()
	if id == "" {
		return nil, fmt.Errorf("transcript payload has no id")
	}

	switch p.Status {
	case statusCompleted:
		if p.Text == nil {
			return nil, ErrMissingText
		}
		utterances := make([]models.Utterance, 0, len(p.Utterances))
		for _, u := range p.Utterances {
			utterances = append(utterances, models.Utterance{
				Speaker:    u.Speaker,
				Text:       u.Text,
				Start:      u.Start,
				End:        u.End,
				Confidence: u.Confidence,
			})
		}
		return Completed{JobID: id, Text: *p.Text, Utterances: utterances}, nil
	case statusError:
		msg := p.Error
		if msg == "" {
			msg = DefaultErrorMessage
		}
		return Errored{JobID: id, Message: msg}, nil
	case "":
		return nil, fmt.Errorf("transcript payload has no status")
	default:
		return Pending{JobID: id, Status: p.Status}, nil
	}
}
