package repository

import (
	"context"

	"github.com/BerylCAtieno/casevia/internal/models"
	"github.com/jmoiron/sqlx"
)

type OrganizationRepository interface {
	// GetOrCreate returns the organization, creating it on the free plan
	// the first time it is seen.
	GetOrCreate(ctx context.Context, id string) (*models.Organization, error)
	SetPlan(ctx context.Context, id, plan string) error
	Usage(ctx context.Context, id string) (*models.Usage, error)
}

type organizationRepository struct {
	db *sqlx.DB
}

func NewOrganizationRepository(db *sqlx.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) GetOrCreate(ctx context.Context, id string) (*models.Organization, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organizations (id, plan, created_at)
		VALUES ($1, 'free', $2)
		ON CONFLICT (id) DO NOTHING
	`, id, now())
	if err != nil {
		return nil, err
	}

	var org models.Organization
	if err := r.db.GetContext(ctx, &org, `SELECT id, plan, created_at FROM organizations WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) SetPlan(ctx context.Context, id, plan string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE organizations SET plan = $2 WHERE id = $1`, id, plan)
	return err
}

func (r *organizationRepository) Usage(ctx context.Context, id string) (*models.Usage, error) {
	var usage models.Usage
	err := r.db.GetContext(ctx, &usage, `
		SELECT
			(SELECT COUNT(*) FROM case_studies WHERE organization_id = $1) AS case_studies,
			(SELECT COALESCE(SUM(file_size), 0) FROM projects WHERE organization_id = $1) AS storage_bytes
	`, id)
	if err != nil {
		return nil, err
	}
	return &usage, nil
}
