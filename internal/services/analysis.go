package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BerylCAtieno/casevia/internal/analyzer"
	"github.com/BerylCAtieno/casevia/internal/models"
	"github.com/BerylCAtieno/casevia/internal/repository"
	"github.com/BerylCAtieno/casevia/internal/slug"
	"github.com/BerylCAtieno/casevia/internal/utils"
)

// Analyze turns the project's transcript into a draft case study. A project
// that already has one just gets it back.
func (s *Service) Analyze(ctx context.Context, id string) (*models.CaseStudy, error) {
	p, err := s.getProject(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.runAnalysis(ctx, p)
}

func (s *Service) analyzeJob(ctx context.Context, job *models.Job) error {
	p, err := s.projects.GetByID(ctx, job.ProjectID)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	_, err = s.runAnalysis(ctx, p)
	return err
}

func (s *Service) runAnalysis(ctx context.Context, p *models.Project) (*models.CaseStudy, error) {
	if !p.HasTranscript() {
		return nil, utils.NewMissingTranscriptError("Project has no transcript to analyze")
	}

	existing, err := s.caseStudies.GetByProjectID(ctx, p.ID)
	if err != nil {
		return nil, utils.WrapInternal("Failed to retrieve case study", err)
	}
	if existing != nil {
		s.ensureReady(ctx, p)
		return s.withSocialPosts(ctx, existing)
	}

	if p.Status != models.StatusAnalyzing {
		return nil, utils.NewInvalidStateError("Analysis cannot run while project is " + string(p.Status))
	}

	log := s.logger.With("project_id", p.ID)
	transcript := analyzer.FormatTranscript(*p.Transcript, p.SpeakerLabels)
	log.Info("Starting analysis", "transcript_length", len(transcript))

	draft, err := s.analyzer.Analyze(ctx, transcript)
	if err != nil {
		log.Error("Failed to analyze transcript", "error", err)
		s.markFailed(ctx, p.ID, msgAnalysisFailed)
		return nil, utils.NewUpstreamError(msgAnalysisFailed, err)
	}

	cs, posts := buildCaseStudy(p, draft)
	err = s.caseStudies.CreateWithPosts(ctx, cs, posts)
	if errors.Is(err, repository.ErrCaseStudyExists) {
		log.Info("Case study created concurrently")
		existing, err := s.caseStudies.GetByProjectID(ctx, p.ID)
		if err != nil || existing == nil {
			return nil, utils.WrapInternal("Failed to retrieve case study", err)
		}
		s.ensureReady(ctx, p)
		return s.withSocialPosts(ctx, existing)
	}
	if err != nil {
		log.Error("Failed to save case study", "error", err)
		s.markFailed(ctx, p.ID, msgAnalysisFailed)
		return nil, utils.WrapInternal("Failed to save case study", err)
	}
	cs.SocialPosts = posts

	s.ensureReady(ctx, p)
	log.Info("Case study created", "case_study_id", cs.ID, "social_posts", len(posts))

	if p.NotifyEmail != nil {
		if err := s.notifier.NotifyCaseStudyReady(ctx, *p.NotifyEmail, p.FileName, cs.ID, cs.Title); err != nil {
			log.Warn("Failed to send notification", "error", err)
		}
	}

	return cs, nil
}

func (s *Service) ensureReady(ctx context.Context, p *models.Project) {
	err := s.projects.UpdateStatus(ctx, p.ID, models.StatusAnalyzing, models.StatusReady)
	if err != nil && !errors.Is(err, models.ErrStatusConflict) {
		s.logger.Error("Failed to mark project ready", "error", err, "project_id", p.ID)
	}
}

func buildCaseStudy(p *models.Project, d *models.AnalysisDraft) (*models.CaseStudy, []models.SocialPost) {
	now := time.Now().UTC()
	cs := &models.CaseStudy{
		ID:             utils.GenerateID(),
		ProjectID:      p.ID,
		OrganizationID: p.OrganizationID,
		Title:          d.Title,
		Summary:        d.Summary,
		Challenge:      d.Challenge,
		Solution:       d.Solution,
		Results:        d.Results,
		Metrics:        models.JSONList[models.Metric](d.Metrics),
		Quotes:         models.JSONList[models.Quote](d.Quotes),
		KeyTakeaways:   models.JSONList[string](d.KeyTakeaways),
		SEOTitle:       d.SEOTitle,
		SEODescription: d.SEODescription,
		Slug:           slug.Generate(d.Title),
		Status:         models.CaseStudyDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var posts []models.SocialPost
	for _, draft := range []struct {
		platform models.SocialPlatform
		content  string
	}{
		{models.PlatformLinkedIn, d.LinkedInPost},
		{models.PlatformTwitter, d.TwitterPost},
	} {
		if strings.TrimSpace(draft.content) == "" {
			continue
		}
		posts = append(posts, models.SocialPost{
			ID:          utils.GenerateID(),
			CaseStudyID: cs.ID,
			ProjectID:   p.ID,
			Platform:    draft.platform,
			Content:     draft.content,
			CreatedAt:   now,
		})
	}
	return cs, posts
}
