package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BerylCAtieno/casevia/internal/extractor"
	"github.com/BerylCAtieno/casevia/internal/jobs"
	"github.com/BerylCAtieno/casevia/internal/models"
	"github.com/BerylCAtieno/casevia/internal/plans"
	"github.com/BerylCAtieno/casevia/internal/utils"
)

func (s *Service) Upload(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error) {
	isMedia := models.IsMediaContentType(req.ContentType)
	if !isMedia && !models.IsTranscriptContentType(req.ContentType) {
		s.logger.Warn("Unsupported content type", "content_type", req.ContentType, "filename", req.FileName)
		return nil, utils.NewBadRequestError(fmt.Sprintf("Unsupported file type '%s'. Upload audio, video, or a PDF, DOCX or TXT transcript", req.ContentType))
	}

	org, err := s.orgs.GetOrCreate(ctx, req.OrganizationID)
	if err != nil {
		s.logger.Error("Failed to load organization", "error", err, "organization_id", req.OrganizationID)
		return nil, utils.WrapInternal("Failed to load organization", err)
	}
	usage, err := s.orgs.Usage(ctx, org.ID)
	if err != nil {
		s.logger.Error("Failed to load usage", "error", err, "organization_id", org.ID)
		return nil, utils.WrapInternal("Failed to load usage", err)
	}

	fileSize := int64(len(req.File))
	if err := plans.For(org.Plan).CheckUpload(*usage, fileSize, req.DurationSeconds); err != nil {
		var v *plans.Violation
		if errors.As(err, &v) {
			return nil, utils.NewPlanLimitError(v.Reason)
		}
		return nil, utils.WrapInternal("Failed to check plan limits", err)
	}

	var transcript string
	if !isMedia {
		transcript, err = extractor.Extract(req.ContentType, req.File)
		if err != nil {
			s.logger.Error("Failed to extract text", "error", err, "content_type", req.ContentType, "filename", req.FileName)
			return nil, utils.NewBadRequestError("No text could be extracted from the transcript. The file may be empty or corrupted")
		}
	}

	id := utils.GenerateID()
	fileName := filepath.Base(req.FileName)
	key := fmt.Sprintf("projects/%s/%s", id, fileName)

	if err := s.storage.Upload(ctx, key, bytes.NewReader(req.File), fileSize, req.ContentType); err != nil {
		s.logger.Error("Failed to upload file", "error", err, "key", key)
		return nil, utils.WrapInternal("Failed to store file", err)
	}

	fileURL, err := s.storage.FileURL(ctx, key)
	if err != nil {
		s.logger.Error("Failed to build file URL", "error", err, "key", key)
		_ = s.storage.Delete(ctx, key)
		return nil, utils.WrapInternal("Failed to store file", err)
	}

	now := time.Now().UTC()
	p := &models.Project{
		ID:              id,
		OrganizationID:  org.ID,
		Status:          models.StatusUploading,
		FileURL:         fileURL,
		FileKey:         key,
		FileName:        fileName,
		FileSize:        fileSize,
		ContentType:     req.ContentType,
		DurationSeconds: req.DurationSeconds,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if email := strings.TrimSpace(req.NotifyEmail); email != "" {
		p.NotifyEmail = &email
	}
	if !isMedia {
		p.Status = models.StatusAnalyzing
		p.Transcript = &transcript
	}

	if err := s.projects.Create(ctx, p); err != nil {
		s.logger.Error("Failed to save project", "error", err, "id", id)
		_ = s.storage.Delete(ctx, key)
		return nil, utils.WrapInternal("Failed to save project", err)
	}

	message := fmt.Sprintf("File uploaded. Use /api/v1/projects/%s/transcribe to start transcription.", id)
	if !isMedia {
		s.enqueue(ctx, id, models.JobAnalyze, now)
		message = "Transcript imported. Analysis has started."
	}

	s.logger.Info("Project uploaded",
		"id", id,
		"organization_id", org.ID,
		"filename", fileName,
		"content_type", req.ContentType,
		"size", fileSize)

	return &models.UploadResponse{
		ID:          id,
		Status:      p.Status,
		FileName:    fileName,
		FileSize:    fileSize,
		ContentType: req.ContentType,
		CreatedAt:   now,
		Message:     message,
	}, nil
}

func (s *Service) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return s.getProject(ctx, id)
}

func (s *Service) GetStatus(ctx context.Context, id string) (*models.ProjectStatusResponse, error) {
	p, err := s.getProject(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &models.ProjectStatusResponse{
		ID:           p.ID,
		Status:       p.Status,
		ErrorMessage: p.ErrorMessage,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.Status == models.StatusReady {
		cs, err := s.caseStudies.GetByProjectID(ctx, p.ID)
		if err != nil {
			return nil, utils.WrapInternal("Failed to retrieve case study", err)
		}
		if cs != nil {
			resp.CaseStudyID = &cs.ID
		}
	}
	return resp, nil
}

// Retry restarts a failed project from the beginning. Media projects are
// transcribed again; transcript imports are analyzed again.
func (s *Service) Retry(ctx context.Context, id string) (*models.Project, error) {
	p, err := s.getProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != models.StatusFailed {
		return nil, utils.NewInvalidStateError(fmt.Sprintf("Only failed projects can be retried (status is %s)", p.Status))
	}

	if p.IsTranscriptImport() {
		if err := s.projects.ResetForRetry(ctx, id, models.StatusAnalyzing); err != nil {
			return nil, s.retryError(id, err)
		}
		s.enqueue(ctx, id, models.JobAnalyze, time.Now())
		s.logger.Info("Retrying analysis", "id", id)
		return s.getProject(ctx, id)
	}

	if err := s.projects.ResetForRetry(ctx, id, models.StatusTranscribing); err != nil {
		return nil, s.retryError(id, err)
	}
	s.logger.Info("Retrying transcription", "id", id)
	return s.StartTranscription(ctx, id)
}

func (s *Service) retryError(id string, err error) error {
	if errors.Is(err, models.ErrStatusConflict) {
		return utils.NewInvalidStateError("Project is no longer failed")
	}
	s.logger.Error("Failed to reset project", "error", err, "id", id)
	return utils.WrapInternal("Failed to reset project", err)
}

func (s *Service) Usage(ctx context.Context, organizationID string) (*models.UsageResponse, error) {
	org, err := s.orgs.GetOrCreate(ctx, organizationID)
	if err != nil {
		return nil, utils.WrapInternal("Failed to load organization", err)
	}
	usage, err := s.orgs.Usage(ctx, org.ID)
	if err != nil {
		return nil, utils.WrapInternal("Failed to load usage", err)
	}
	return &models.UsageResponse{
		OrganizationID: org.ID,
		Plan:           org.Plan,
		Usage:          *usage,
		Limits:         plans.For(org.Plan).View(),
	}, nil
}

// enqueue schedules a job without failing the caller; the job table dedupes
// concurrent requests for the same project.
func (s *Service) enqueue(ctx context.Context, projectID string, kind models.JobKind, runAt time.Time) {
	ok, err := jobs.Enqueue(ctx, s.jobs, projectID, kind, runAt)
	if err != nil {
		s.logger.Error("Failed to enqueue job", "error", err, "project_id", projectID, "kind", kind)
		return
	}
	if !ok {
		s.logger.Debug("Job already pending", "project_id", projectID, "kind", kind)
	}
}

// restart is enqueue for jobs whose attempt budget must start over, such as
// polling a resubmitted transcription.
func (s *Service) restart(ctx context.Context, projectID string, kind models.JobKind, runAt time.Time) {
	if err := jobs.Restart(ctx, s.jobs, projectID, kind, runAt); err != nil {
		s.logger.Error("Failed to schedule job", "error", err, "project_id", projectID, "kind", kind)
	}
}
