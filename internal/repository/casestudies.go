package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/BerylCAtieno/casevia/internal/db"
	"github.com/BerylCAtieno/casevia/internal/models"
	"github.com/jmoiron/sqlx"
)

// ErrCaseStudyExists is returned when a project already has a case study.
var ErrCaseStudyExists = errors.New("case study already exists for project")

type CaseStudyRepository interface {
	// CreateWithPosts inserts a case study and its social posts in one
	// transaction.
	CreateWithPosts(ctx context.Context, cs *models.CaseStudy, posts []models.SocialPost) error
	GetByID(ctx context.Context, id string) (*models.CaseStudy, error)
	GetByProjectID(ctx context.Context, projectID string) (*models.CaseStudy, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*models.CaseStudy, error)
	ListSocialPosts(ctx context.Context, caseStudyID string) ([]models.SocialPost, error)
	// SlugTakenByOther reports whether a published case study other than
	// excludeID holds slug. Draft slugs are provisional.
	SlugTakenByOther(ctx context.Context, slug, excludeID string) (bool, error)
	Publish(ctx context.Context, id, slug string, at time.Time) error
	Unpublish(ctx context.Context, id string) error
}

type caseStudyRepository struct {
	db *sqlx.DB
}

func NewCaseStudyRepository(db *sqlx.DB) CaseStudyRepository {
	return &caseStudyRepository{db: db}
}

const caseStudyColumns = `id, project_id, organization_id, title, summary, challenge, solution, results,
	metrics, quotes, key_takeaways, seo_title, seo_description, slug, status, published_at,
	created_at, updated_at`

func (r *caseStudyRepository) CreateWithPosts(ctx context.Context, cs *models.CaseStudy, posts []models.SocialPost) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO case_studies (id, project_id, organization_id, title, summary, challenge, solution,
			results, metrics, quotes, key_takeaways, seo_title, seo_description, slug, status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = tx.ExecContext(ctx, query,
		cs.ID,
		cs.ProjectID,
		cs.OrganizationID,
		cs.Title,
		cs.Summary,
		cs.Challenge,
		cs.Solution,
		cs.Results,
		cs.Metrics,
		cs.Quotes,
		cs.KeyTakeaways,
		cs.SEOTitle,
		cs.SEODescription,
		cs.Slug,
		cs.Status,
		cs.CreatedAt,
		cs.UpdatedAt,
	)
	if db.IsUniqueViolation(err) {
		return ErrCaseStudyExists
	}
	if err != nil {
		return fmt.Errorf("insert case study: %w", err)
	}

	for _, post := range posts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO social_posts (id, case_study_id, project_id, platform, content, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, post.ID, post.CaseStudyID, post.ProjectID, post.Platform, post.Content, post.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert social post: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit case study: %w", err)
	}
	return nil
}

func (r *caseStudyRepository) GetByID(ctx context.Context, id string) (*models.CaseStudy, error) {
	return r.getOne(ctx, `SELECT `+caseStudyColumns+` FROM case_studies WHERE id = $1`, id)
}

func (r *caseStudyRepository) GetByProjectID(ctx context.Context, projectID string) (*models.CaseStudy, error) {
	return r.getOne(ctx, `SELECT `+caseStudyColumns+` FROM case_studies WHERE project_id = $1`, projectID)
}

func (r *caseStudyRepository) GetPublishedBySlug(ctx context.Context, slug string) (*models.CaseStudy, error) {
	return r.getOne(ctx,
		`SELECT `+caseStudyColumns+` FROM case_studies WHERE slug = $1 AND status = $2`,
		slug, models.CaseStudyPublished)
}

func (r *caseStudyRepository) getOne(ctx context.Context, query string, args ...any) (*models.CaseStudy, error) {
	var cs models.CaseStudy
	err := r.db.GetContext(ctx, &cs, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

func (r *caseStudyRepository) ListSocialPosts(ctx context.Context, caseStudyID string) ([]models.SocialPost, error) {
	posts := []models.SocialPost{}
	err := r.db.SelectContext(ctx, &posts, `
		SELECT id, case_study_id, project_id, platform, content, created_at
		FROM social_posts
		WHERE case_study_id = $1
		ORDER BY platform
	`, caseStudyID)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *caseStudyRepository) SlugTakenByOther(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM case_studies WHERE slug = $1 AND id <> $2 AND status = $3`,
		slug, excludeID, models.CaseStudyPublished)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *caseStudyRepository) Publish(ctx context.Context, id, slug string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE case_studies
		SET slug = $2, status = $3, published_at = $4, updated_at = $4
		WHERE id = $1 AND status = $5
	`, id, slug, models.CaseStudyPublished, at, models.CaseStudyDraft)
	if db.IsUniqueViolation(err) {
		return models.ErrSlugTaken
	}
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

func (r *caseStudyRepository) Unpublish(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE case_studies
		SET status = $2, published_at = NULL, updated_at = $3
		WHERE id = $1
	`, id, models.CaseStudyDraft, now())
	return err
}
