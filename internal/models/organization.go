package models

import "time"

type Organization struct {
	ID        string    `json:"id" db:"id"`
	Plan      string    `json:"plan" db:"plan"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Usage is what an organization currently consumes against its plan.
type Usage struct {
	CaseStudies  int   `json:"case_studies" db:"case_studies"`
	StorageBytes int64 `json:"storage_bytes" db:"storage_bytes"`
}

type UsageResponse struct {
	OrganizationID string     `json:"organization_id"`
	Plan           string     `json:"plan"`
	Usage          Usage      `json:"usage"`
	Limits         LimitsView `json:"limits"`
}

// LimitsView renders plan limits; zero means unlimited.
type LimitsView struct {
	MaxCaseStudies     int   `json:"max_case_studies"`
	MaxStorageBytes    int64 `json:"max_storage_bytes"`
	MaxDurationSeconds int   `json:"max_duration_seconds"`
}
