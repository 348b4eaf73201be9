package jobs

import (
	"context"
	"time"

	"github.com/BerylCAtieno/casevia/internal/models"
	"github.com/BerylCAtieno/casevia/internal/repository"
	"github.com/BerylCAtieno/casevia/internal/utils"
)

// Enqueue schedules a job of kind for the project at runAt. It reports false
// when a job of the same kind is already queued or running for the project.
func Enqueue(ctx context.Context, repo repository.JobRepository, projectID string, kind models.JobKind, runAt time.Time) (bool, error) {
	now := time.Now().UTC()
	job := &models.Job{
		ID:        utils.GenerateID(),
		ProjectID: projectID,
		Kind:      kind,
		Status:    models.JobQueued,
		RunAt:     runAt.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return repo.Enqueue(ctx, job)
}

// Restart schedules a fresh job of kind for the project at runAt. A job of
// the same kind still pending from an earlier run is reused with its
// attempt count cleared.
func Restart(ctx context.Context, repo repository.JobRepository, projectID string, kind models.JobKind, runAt time.Time) error {
	inserted, err := Enqueue(ctx, repo, projectID, kind, runAt)
	if err != nil || inserted {
		return err
	}
	_, err = repo.Restart(ctx, projectID, kind, runAt.UTC())
	return err
}
