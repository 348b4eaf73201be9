package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/BerylCAtieno/casevia/internal/models"
	"github.com/jmoiron/sqlx"
)

type JobRepository interface {
	// Enqueue inserts job unless one of the same kind is already queued or
	// running for the project. It reports whether a row was inserted.
	Enqueue(ctx context.Context, job *models.Job) (bool, error)
	// ClaimNext marks the oldest due job running and returns it, or nil when
	// nothing is due.
	ClaimNext(ctx context.Context, at time.Time) (*models.Job, error)
	Complete(ctx context.Context, id string) error
	Fail(ctx context.Context, id, message string) error
	Reschedule(ctx context.Context, id string, runAt time.Time) error
	// Restart clears the attempt count of the project's queued or running
	// job of kind and moves it to runAt. It reports whether such a job
	// existed.
	Restart(ctx context.Context, projectID string, kind models.JobKind, runAt time.Time) (bool, error)
	// ResetRunning returns jobs left running by a previous process to the
	// queue.
	ResetRunning(ctx context.Context) (int64, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Job, error)
}

type jobRepository struct {
	db *sqlx.DB
}

func NewJobRepository(db *sqlx.DB) JobRepository {
	return &jobRepository{db: db}
}

const jobColumns = `id, project_id, kind, status, attempts, run_at, last_error, created_at, updated_at`

func (r *jobRepository) Enqueue(ctx context.Context, job *models.Job) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, project_id, kind, status, attempts, run_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING
	`, job.ID, job.ProjectID, job.Kind, job.Status, job.Attempts, job.RunAt, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *jobRepository) ClaimNext(ctx context.Context, at time.Time) (*models.Job, error) {
	var job models.Job
	err := r.db.GetContext(ctx, &job, `
		UPDATE jobs
		SET status = $1, attempts = attempts + 1, updated_at = $2
		WHERE id = (
			SELECT id FROM jobs
			WHERE status = $3 AND run_at <= $2
			ORDER BY run_at, created_at
			LIMIT 1
		) AND status = $3
		RETURNING `+jobColumns,
		models.JobRunning, at.UTC(), models.JobQueued)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) Complete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = $2, updated_at = $3 WHERE id = $1`,
		id, models.JobDone, now())
	return err
}

func (r *jobRepository) Fail(ctx context.Context, id, message string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = $2, last_error = $3, updated_at = $4 WHERE id = $1`,
		id, models.JobFailed, message, now())
	return err
}

func (r *jobRepository) Reschedule(ctx context.Context, id string, runAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = $2, run_at = $3, updated_at = $4 WHERE id = $1`,
		id, models.JobQueued, runAt.UTC(), now())
	return err
}

func (r *jobRepository) Restart(ctx context.Context, projectID string, kind models.JobKind, runAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET attempts = 0, run_at = $3, last_error = NULL, updated_at = $4
		WHERE project_id = $1 AND kind = $2 AND status IN ($5, $6)
	`, projectID, kind, runAt.UTC(), now(), models.JobQueued, models.JobRunning)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *jobRepository) ResetRunning(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = $1, updated_at = $2 WHERE status = $3`,
		models.JobQueued, now(), models.JobRunning)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *jobRepository) ListByProject(ctx context.Context, projectID string) ([]models.Job, error) {
	jobs := []models.Job{}
	err := r.db.SelectContext(ctx, &jobs,
		`SELECT `+jobColumns+` FROM jobs WHERE project_id = $1 ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	return jobs, nil
}
