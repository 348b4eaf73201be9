package services

import (
	"context"
	"errors"
	"time"

	"github.com/BerylCAtieno/casevia/internal/exporter"
	"github.com/BerylCAtieno/casevia/internal/models"
	"github.com/BerylCAtieno/casevia/internal/slug"
	"github.com/BerylCAtieno/casevia/internal/utils"
)

const fallbackSlug = "case-study"

func (s *Service) getCaseStudy(ctx context.Context, id string) (*models.CaseStudy, error) {
	cs, err := s.caseStudies.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get case study", "error", err, "id", id)
		return nil, utils.WrapInternal("Failed to retrieve case study", err)
	}
	if cs == nil {
		return nil, utils.NewNotFoundError("Case study not found")
	}
	return cs, nil
}

func (s *Service) withSocialPosts(ctx context.Context, cs *models.CaseStudy) (*models.CaseStudy, error) {
	posts, err := s.caseStudies.ListSocialPosts(ctx, cs.ID)
	if err != nil {
		return nil, utils.WrapInternal("Failed to retrieve social posts", err)
	}
	cs.SocialPosts = posts
	return cs, nil
}

func (s *Service) GetCaseStudy(ctx context.Context, id string) (*models.CaseStudy, error) {
	cs, err := s.getCaseStudy(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withSocialPosts(ctx, cs)
}

func (s *Service) GetProjectCaseStudy(ctx context.Context, projectID string) (*models.CaseStudy, error) {
	if _, err := s.getProject(ctx, projectID); err != nil {
		return nil, err
	}
	cs, err := s.caseStudies.GetByProjectID(ctx, projectID)
	if err != nil {
		return nil, utils.WrapInternal("Failed to retrieve case study", err)
	}
	if cs == nil {
		return nil, utils.NewNotFoundError("Case study not ready yet")
	}
	return s.withSocialPosts(ctx, cs)
}

// GetPublicCaseStudy returns a published case study by slug. Drafts are not
// visible.
func (s *Service) GetPublicCaseStudy(ctx context.Context, slugValue string) (*models.CaseStudy, error) {
	cs, err := s.caseStudies.GetPublishedBySlug(ctx, slugValue)
	if err != nil {
		return nil, utils.WrapInternal("Failed to retrieve case study", err)
	}
	if cs == nil {
		return nil, utils.NewNotFoundError("Case study not found")
	}
	return cs, nil
}

// Publish makes a draft public under a slug no other case study holds. The
// probe restarts once if a concurrent publish claims the chosen slug first.
func (s *Service) Publish(ctx context.Context, id string) (*models.CaseStudy, error) {
	cs, err := s.getCaseStudy(ctx, id)
	if err != nil {
		return nil, err
	}
	if cs.Status == models.CaseStudyPublished {
		return cs, nil
	}

	base := cs.Slug
	if base == "" {
		base = slug.Generate(cs.Title)
	}
	if base == "" {
		base = fallbackSlug
	}

	taken := func(ctx context.Context, candidate string) (bool, error) {
		return s.caseStudies.SlugTakenByOther(ctx, candidate, cs.ID)
	}

	for attempt := 0; attempt < 2; attempt++ {
		candidate, err := slug.Unique(ctx, base, s.cfg.SlugMaxAttempts, taken)
		if errors.Is(err, slug.ErrExhausted) {
			s.logger.Warn("Slug probe exhausted", "case_study_id", id, "base", base)
			return nil, utils.NewConflictError("Could not find a free slug for this case study")
		}
		if err != nil {
			return nil, utils.WrapInternal("Failed to check slug", err)
		}

		err = s.caseStudies.Publish(ctx, id, candidate, time.Now().UTC())
		switch {
		case err == nil:
			s.logger.Info("Case study published", "case_study_id", id, "slug", candidate)
			return s.getCaseStudy(ctx, id)
		case errors.Is(err, models.ErrSlugTaken):
			s.logger.Info("Slug claimed concurrently, probing again", "case_study_id", id, "slug", candidate)
			continue
		case errors.Is(err, models.ErrStatusConflict):
			// Published by a concurrent request.
			return s.getCaseStudy(ctx, id)
		default:
			return nil, utils.WrapInternal("Failed to publish case study", err)
		}
	}
	return nil, utils.NewConflictError("Slug was taken concurrently, try again")
}

func (s *Service) Unpublish(ctx context.Context, id string) (*models.CaseStudy, error) {
	cs, err := s.getCaseStudy(ctx, id)
	if err != nil {
		return nil, err
	}
	if cs.Status == models.CaseStudyDraft {
		return cs, nil
	}
	if err := s.caseStudies.Unpublish(ctx, id); err != nil && !errors.Is(err, models.ErrStatusConflict) {
		return nil, utils.WrapInternal("Failed to unpublish case study", err)
	}
	s.logger.Info("Case study unpublished", "case_study_id", id)
	return s.getCaseStudy(ctx, id)
}

func (s *Service) Export(ctx context.Context, id string, format exporter.Format) ([]byte, error) {
	cs, err := s.getCaseStudy(ctx, id)
	if err != nil {
		return nil, err
	}
	out, err := exporter.Render(cs, format)
	if err != nil {
		s.logger.Error("Failed to export case study", "error", err, "id", id, "format", format)
		return nil, utils.WrapInternal("Failed to export case study", err)
	}
	return out, nil
}
