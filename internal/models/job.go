package models

import "time"

type JobKind string

const (
	JobPollTranscription JobKind = "poll_transcription"
	JobAnalyze           JobKind = "analyze"
)

type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

type Job struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	Kind      JobKind   `json:"kind" db:"kind"`
	Status    JobStatus `json:"status" db:"status"`
	Attempts  int       `json:"attempts" db:"attempts"`
	RunAt     time.Time `json:"run_at" db:"run_at"`
	LastError *string   `json:"last_error,omitempty" db:"last_error"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
