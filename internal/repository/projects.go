package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/BerylCAtieno/casevia/internal/models"
	"github.com/jmoiron/sqlx"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	GetByAssemblyAIID(ctx context.Context, assemblyAIID string) (*models.Project, error)
	// UpdateStatus moves a project from one status to another. It returns
	// models.ErrStatusConflict when the project is not in status from, and
	// models.ErrInvalidTransition when the move is not a pipeline step.
	UpdateStatus(ctx context.Context, id string, from, to models.ProjectStatus) error
	StartTranscription(ctx context.Context, id, assemblyAIID string) error
	CompleteTranscription(ctx context.Context, id, transcript string, utterances models.Utterances) error
	// FailTranscription records a provider-reported error while the project
	// is still transcribing.
	FailTranscription(ctx context.Context, id, message string) error
	MarkFailed(ctx context.Context, id, message string) error
	ResetForRetry(ctx context.Context, id string, to models.ProjectStatus) error
}

type projectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) ProjectRepository {
	return &projectRepository{db: db}
}

const projectColumns = `id, organization_id, status, file_url, file_key, file_name, file_size,
	content_type, duration_seconds, notify_email, assembly_ai_id, transcript, speaker_labels,
	error_message, created_at, updated_at`

func (r *projectRepository) Create(ctx context.Context, p *models.Project) error {
	query := `
		INSERT INTO projects (id, organization_id, status, file_url, file_key, file_name, file_size,
			content_type, duration_seconds, notify_email, transcript, speaker_labels, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.OrganizationID,
		p.Status,
		p.FileURL,
		p.FileKey,
		p.FileName,
		p.FileSize,
		p.ContentType,
		p.DurationSeconds,
		p.NotifyEmail,
		p.Transcript,
		p.SpeakerLabels,
		p.CreatedAt,
		p.UpdatedAt,
	)

	return err
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	return r.getOne(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
}

func (r *projectRepository) GetByAssemblyAIID(ctx context.Context, assemblyAIID string) (*models.Project, error) {
	return r.getOne(ctx, `SELECT `+projectColumns+` FROM projects WHERE assembly_ai_id = $1`, assemblyAIID)
}

func (r *projectRepository) getOne(ctx context.Context, query string, args ...any) (*models.Project, error) {
	var p models.Project
	err := r.db.GetContext(ctx, &p, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepository) UpdateStatus(ctx context.Context, id string, from, to models.ProjectStatus) error {
	if !models.CanTransition(from, to) {
		return fmt.Errorf("%w: %s to %s", models.ErrInvalidTransition, from, to)
	}
	query := `UPDATE projects SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	return r.execConditional(ctx, query, id, from, to, now())
}

func (r *projectRepository) StartTranscription(ctx context.Context, id, assemblyAIID string) error {
	query := `
		UPDATE projects
		SET status = $2, assembly_ai_id = $3, error_message = NULL, updated_at = $4
		WHERE id = $1 AND status IN ($5, $6)
	`
	return r.execConditional(ctx, query,
		id, models.StatusTranscribing, assemblyAIID, now(),
		models.StatusUploading, models.StatusTranscribing)
}

func (r *projectRepository) CompleteTranscription(ctx context.Context, id, transcript string, utterances models.Utterances) error {
	if utterances == nil {
		utterances = models.Utterances{}
	}
	query := `
		UPDATE projects
		SET status = $2, transcript = $3, speaker_labels = $4, updated_at = $5
		WHERE id = $1 AND status = $6
	`
	return r.execConditional(ctx, query,
		id, models.StatusAnalyzing, transcript, utterances, now(), models.StatusTranscribing)
}

func (r *projectRepository) FailTranscription(ctx context.Context, id, message string) error {
	query := `UPDATE projects SET status = $2, error_message = $3, updated_at = $4 WHERE id = $1 AND status = $5`
	return r.execConditional(ctx, query, id, models.StatusFailed, message, now(), models.StatusTranscribing)
}

func (r *projectRepository) MarkFailed(ctx context.Context, id, message string) error {
	query := `
		UPDATE projects
		SET status = $2, error_message = $3, updated_at = $4
		WHERE id = $1 AND status NOT IN ($5, $6)
	`
	return r.execConditional(ctx, query,
		id, models.StatusFailed, message, now(), models.StatusReady, models.StatusFailed)
}

func (r *projectRepository) ResetForRetry(ctx context.Context, id string, to models.ProjectStatus) error {
	if to == models.StatusAnalyzing {
		return r.execConditional(ctx,
			`UPDATE projects SET status = $2, error_message = NULL, updated_at = $3 WHERE id = $1 AND status = $4`,
			id, to, now(), models.StatusFailed)
	}

	query := `
		UPDATE projects
		SET status = $2, error_message = NULL, transcript = NULL, speaker_labels = NULL,
			assembly_ai_id = NULL, updated_at = $3
		WHERE id = $1 AND status = $4
	`
	return r.execConditional(ctx, query, id, to, now(), models.StatusFailed)
}

func (r *projectRepository) execConditional(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrStatusConflict
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}
