// Package plans holds the static per-tier quotas checked before uploads.
package plans

import (
	"fmt"

	"github.com/BerylCAtieno/casevia/internal/models"
)

const (
	Free    = "free"
	Starter = "starter"
	Pro     = "pro"
)

const (
	mb = int64(1024 * 1024)
	gb = 1024 * mb
)

// Limits are the quotas of a plan. Zero means unlimited.
type Limits struct {
	MaxCaseStudies     int
	MaxStorageBytes    int64
	MaxDurationSeconds int
}

var limits = map[string]Limits{
	Free:    {MaxCaseStudies: 3, MaxStorageBytes: 500 * mb, MaxDurationSeconds: 30 * 60},
	Starter: {MaxCaseStudies: 20, MaxStorageBytes: 5 * gb, MaxDurationSeconds: 90 * 60},
	Pro:     {MaxCaseStudies: 0, MaxStorageBytes: 50 * gb, MaxDurationSeconds: 180 * 60},
}

// For returns the limits of plan, falling back to the free tier for unknown
// plans.
func For(plan string) Limits {
	if l, ok := limits[plan]; ok {
		return l
	}
	return limits[Free]
}

func (l Limits) View() models.LimitsView {
	return models.LimitsView{
		MaxCaseStudies:     l.MaxCaseStudies,
		MaxStorageBytes:    l.MaxStorageBytes,
		MaxDurationSeconds: l.MaxDurationSeconds,
	}
}

// Violation describes why an upload is not allowed.
type Violation struct {
	Reason string
}

func (v *Violation) Error() string {
	return v.Reason
}

// CheckUpload validates a new upload of fileSize bytes and durationSeconds
// against the plan, given current usage.
func (l Limits) CheckUpload(usage models.Usage, fileSize int64, durationSeconds float64) error {
	if l.MaxCaseStudies > 0 && usage.CaseStudies >= l.MaxCaseStudies {
		return &Violation{Reason: fmt.Sprintf("Your plan allows %d case studies. Upgrade to create more", l.MaxCaseStudies)}
	}
	if l.MaxStorageBytes > 0 && usage.StorageBytes+fileSize > l.MaxStorageBytes {
		return &Violation{Reason: fmt.Sprintf("Upload exceeds your plan's storage limit of %d MB", l.MaxStorageBytes/mb)}
	}
	if l.MaxDurationSeconds > 0 && durationSeconds > float64(l.MaxDurationSeconds) {
		return &Violation{Reason: fmt.Sprintf("Recording is longer than your plan's limit of %d minutes", l.MaxDurationSeconds/60)}
	}
	return nil
}
