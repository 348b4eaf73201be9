package services

import (
	"context"

	"github.com/BerylCAtieno/casevia/internal/analyzer"
	"github.com/BerylCAtieno/casevia/internal/config"
	"github.com/BerylCAtieno/casevia/internal/exporter"
	"github.com/BerylCAtieno/casevia/internal/jobs"
	"github.com/BerylCAtieno/casevia/internal/models"
	"github.com/BerylCAtieno/casevia/internal/notifier"
	"github.com/BerylCAtieno/casevia/internal/repository"
	"github.com/BerylCAtieno/casevia/internal/storage"
	"github.com/BerylCAtieno/casevia/internal/transcriber"
	"github.com/BerylCAtieno/casevia/internal/utils"
)

// Messages persisted on failed projects.
const (
	msgStartFailed    = "Failed to start transcription"
	msgTimedOut       = "Transcription timed out"
	msgCheckFailed    = "Failed to check transcription status"
	msgAnalysisFailed = "Failed to analyze transcript"
)

type ProjectService interface {
	Upload(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	GetStatus(ctx context.Context, id string) (*models.ProjectStatusResponse, error)
	StartTranscription(ctx context.Context, id string) (*models.Project, error)
	Analyze(ctx context.Context, id string) (*models.CaseStudy, error)
	Retry(ctx context.Context, id string) (*models.Project, error)
	GetProjectCaseStudy(ctx context.Context, projectID string) (*models.CaseStudy, error)
	Usage(ctx context.Context, organizationID string) (*models.UsageResponse, error)
}

type WebhookService interface {
	// HandleTranscriptionWebhook authenticates and applies a provider
	// callback.
	HandleTranscriptionWebhook(ctx context.Context, secret string, body []byte) error
}

type CaseStudyService interface {
	GetCaseStudy(ctx context.Context, id string) (*models.CaseStudy, error)
	GetPublicCaseStudy(ctx context.Context, slug string) (*models.CaseStudy, error)
	Publish(ctx context.Context, id string) (*models.CaseStudy, error)
	Unpublish(ctx context.Context, id string) (*models.CaseStudy, error)
	Export(ctx context.Context, id string, format exporter.Format) ([]byte, error)
}

type Dependencies struct {
	Projects      repository.ProjectRepository
	CaseStudies   repository.CaseStudyRepository
	Jobs          repository.JobRepository
	Organizations repository.OrganizationRepository
	Storage       storage.Storage
	Transcriber   transcriber.Transcriber
	Analyzer      analyzer.Analyzer
	Notifier      notifier.Notifier
	Config        *config.Config
	Logger        *utils.Logger
}

// Service drives a project from upload to a published case study.
type Service struct {
	projects    repository.ProjectRepository
	caseStudies repository.CaseStudyRepository
	jobs        repository.JobRepository
	orgs        repository.OrganizationRepository
	storage     storage.Storage
	transcriber transcriber.Transcriber
	analyzer    analyzer.Analyzer
	notifier    notifier.Notifier
	cfg         *config.Config
	logger      *utils.Logger
}

func NewService(d Dependencies) *Service {
	n := d.Notifier
	if n == nil {
		n = notifier.New(&config.Config{})
	}
	return &Service{
		projects:    d.Projects,
		caseStudies: d.CaseStudies,
		jobs:        d.Jobs,
		orgs:        d.Organizations,
		storage:     d.Storage,
		transcriber: d.Transcriber,
		analyzer:    d.Analyzer,
		notifier:    n,
		cfg:         d.Config,
		logger:      d.Logger.With("component", "PipelineService"),
	}
}

// RegisterJobs binds the pipeline's background handlers.
func (s *Service) RegisterJobs(r *jobs.Registry) {
	r.Register(models.JobPollTranscription, s.pollTranscription)
	r.Register(models.JobAnalyze, s.analyzeJob)
}

func (s *Service) getProject(ctx context.Context, id string) (*models.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get project", "error", err, "id", id)
		return nil, utils.WrapInternal("Failed to retrieve project", err)
	}
	if p == nil {
		return nil, utils.NewNotFoundError("Project not found")
	}
	return p, nil
}

// markFailed records a pipeline failure. Projects already ready or failed
// are left alone.
func (s *Service) markFailed(ctx context.Context, id, message string) {
	if err := s.projects.MarkFailed(ctx, id, message); err != nil {
		s.logger.Warn("Failed to mark project failed", "error", err, "id", id, "message", message)
		return
	}
	s.logger.Info("Project failed", "id", id, "message", message)
}
