package models

import (
	"time"
)

type ProjectStatus string

const (
	StatusUploading    ProjectStatus = "uploading"
	StatusTranscribing ProjectStatus = "transcribing"
	StatusAnalyzing    ProjectStatus = "analyzing"
	StatusReady        ProjectStatus = "ready"
	StatusFailed       ProjectStatus = "failed"
)

// IsTerminal reports whether no pipeline step moves the project further.
// Failed projects can still be retried by the user.
func (s ProjectStatus) IsTerminal() bool {
	return s == StatusReady || s == StatusFailed
}

// CanTransition reports whether the pipeline may move a project from one
// status to another.
func CanTransition(from, to ProjectStatus) bool {
	if to == StatusFailed {
		return !from.IsTerminal()
	}
	switch from {
	case StatusUploading:
		// Transcript imports skip transcription.
		return to == StatusTranscribing || to == StatusAnalyzing
	case StatusTranscribing:
		return to == StatusAnalyzing
	case StatusAnalyzing:
		return to == StatusReady
	case StatusFailed:
		// Explicit retry. Transcript imports retry straight into analysis.
		return to == StatusTranscribing || to == StatusAnalyzing
	}
	return false
}

type Project struct {
	ID              string        `json:"id" db:"id"`
	OrganizationID  string        `json:"organization_id" db:"organization_id"`
	Status          ProjectStatus `json:"status" db:"status"`
	FileURL         string        `json:"file_url" db:"file_url"`
	FileKey         string        `json:"-" db:"file_key"`
	FileName        string        `json:"file_name" db:"file_name"`
	FileSize        int64         `json:"file_size" db:"file_size"`
	ContentType     string        `json:"content_type" db:"content_type"`
	DurationSeconds float64       `json:"duration_seconds" db:"duration_seconds"`
	NotifyEmail     *string       `json:"notify_email,omitempty" db:"notify_email"`
	AssemblyAIID    *string       `json:"assembly_ai_id,omitempty" db:"assembly_ai_id"`
	Transcript      *string       `json:"transcript,omitempty" db:"transcript"`
	SpeakerLabels   Utterances    `json:"speaker_labels,omitempty" db:"speaker_labels"`
	ErrorMessage    *string       `json:"error_message,omitempty" db:"error_message"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// IsTranscriptImport reports whether the project was created from an
// uploaded transcript document rather than media.
func (p *Project) IsTranscriptImport() bool {
	return !IsMediaContentType(p.ContentType)
}

// HasTranscript reports whether a non-empty transcript is stored.
func (p *Project) HasTranscript() bool {
	return p.Transcript != nil && *p.Transcript != ""
}

// Utterance is one diarized segment of a transcript.
type Utterance struct {
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Confidence float64 `json:"confidence,omitempty"`
}

type Utterances = JSONList[Utterance]

type UploadRequest struct {
	OrganizationID  string
	File            []byte
	FileName        string
	ContentType     string
	DurationSeconds float64
	NotifyEmail     string
}

type UploadResponse struct {
	ID          string        `json:"id"`
	Status      ProjectStatus `json:"status"`
	FileName    string        `json:"file_name"`
	FileSize    int64         `json:"file_size"`
	ContentType string        `json:"content_type"`
	CreatedAt   time.Time     `json:"created_at"`
	Message     string        `json:"message"`
}

type ProjectStatusResponse struct {
	ID           string        `json:"id"`
	Status       ProjectStatus `json:"status"`
	ErrorMessage *string       `json:"error_message,omitempty"`
	CaseStudyID  *string       `json:"case_study_id,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
