package services

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"time"

	"github.com/BerylCAtieno/casevia/internal/jobs"
	"github.com/BerylCAtieno/casevia/internal/models"
	"github.com/BerylCAtieno/casevia/internal/transcriber"
	"github.com/BerylCAtieno/casevia/internal/utils"
)

// StartTranscription submits the project's file for diarized transcription
// and schedules the completion poller.
func (s *Service) StartTranscription(ctx context.Context, id string) (*models.Project, error) {
	p, err := s.getProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.FileURL == "" {
		return nil, utils.NewInvalidStateError("Project has no file to transcribe")
	}
	if p.IsTranscriptImport() {
		return nil, utils.NewInvalidStateError("Imported transcripts do not need transcription")
	}
	switch {
	case p.Status == models.StatusUploading:
	case p.Status == models.StatusTranscribing && p.AssemblyAIID == nil:
	default:
		return nil, utils.NewInvalidStateError("Transcription cannot be started while project is " + string(p.Status))
	}

	// Presigned URLs expire; hand the provider a fresh one when possible.
	audioURL := p.FileURL
	if p.FileKey != "" {
		if fresh, err := s.storage.FileURL(ctx, p.FileKey); err == nil {
			audioURL = fresh
		} else {
			s.logger.Warn("Failed to refresh file URL, using stored one", "error", err, "id", id)
		}
	}

	opts := transcriber.SubmitOptions{WebhookURL: s.cfg.WebhookURL()}
	if opts.WebhookURL != "" {
		opts.WebhookSecret = s.cfg.WebhookSecret
	}

	jobID, err := s.transcriber.Submit(ctx, audioURL, opts)
	if err != nil {
		s.logger.Error("Failed to submit transcription", "error", err, "id", id)
		s.markFailed(ctx, id, msgStartFailed)
		return nil, utils.NewUpstreamError(msgStartFailed, err)
	}

	if err := s.projects.StartTranscription(ctx, id, jobID); err != nil {
		if errors.Is(err, models.ErrStatusConflict) {
			return nil, utils.NewInvalidStateError("Project status changed while starting transcription")
		}
		s.logger.Error("Failed to save transcription job", "error", err, "id", id)
		return nil, utils.WrapInternal("Failed to save transcription job", err)
	}

	s.restart(ctx, id, models.JobPollTranscription, time.Now().Add(s.cfg.PollInterval))

	s.logger.Info("Transcription started", "id", id, "transcript_id", jobID)
	return s.getProject(ctx, id)
}

// pollTranscription is one attempt of the completion poller. The job's
// attempt counter bounds the number of polls.
func (s *Service) pollTranscription(ctx context.Context, job *models.Job) error {
	log := s.logger.With("project_id", job.ProjectID, "attempt", job.Attempts)

	p, err := s.projects.GetByID(ctx, job.ProjectID)
	if err != nil {
		s.markFailed(ctx, job.ProjectID, msgCheckFailed)
		return err
	}
	if p == nil {
		log.Warn("Project gone, dropping poll")
		return nil
	}
	if p.Status != models.StatusTranscribing || p.AssemblyAIID == nil {
		log.Debug("Project no longer transcribing, stopping poll", "status", p.Status)
		return nil
	}

	outcome, err := s.transcriber.Fetch(ctx, *p.AssemblyAIID)
	if err != nil {
		log.Error("Failed to check transcription status", "error", err)
		s.markFailed(ctx, p.ID, msgCheckFailed)
		return err
	}

	if pending, ok := outcome.(transcriber.Pending); ok {
		if job.Attempts >= s.cfg.MaxPollAttempts {
			log.Warn("Transcription poll attempts exhausted", "provider_status", pending.Status)
			s.markFailed(ctx, p.ID, msgTimedOut)
			return utils.NewTimeoutError(msgTimedOut)
		}
		return jobs.Reschedule(s.cfg.PollInterval)
	}

	if err := s.applyOutcome(ctx, p, outcome); err != nil {
		s.markFailed(ctx, p.ID, msgCheckFailed)
		return err
	}
	return nil
}

// HandleTranscriptionWebhook applies a provider callback. Callbacks for
// projects that have already moved on are acknowledged without changes.
func (s *Service) HandleTranscriptionWebhook(ctx context.Context, secret string, body []byte) error {
	expected := s.cfg.WebhookSecret
	if expected == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(expected)) != 1 {
		s.logger.Warn("Rejected webhook with invalid secret")
		return utils.NewAuthError("Invalid webhook secret")
	}

	var payload transcriber.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return utils.NewBadRequestError("Invalid webhook payload")
	}
	jobID := payload.JobID()
	if jobID == "" {
		return utils.NewBadRequestError("Webhook payload has no transcript_id")
	}

	p, err := s.projects.GetByAssemblyAIID(ctx, jobID)
	if err != nil {
		return utils.WrapInternal("Failed to retrieve project", err)
	}
	if p == nil {
		return utils.NewNotFoundError("No project for transcript " + jobID)
	}

	outcome, err := transcriber.ParseOutcome(payload)
	missingText := errors.Is(err, transcriber.ErrMissingText)
	if err != nil && !missingText {
		return utils.NewBadRequestError(err.Error())
	}

	if p.Status != models.StatusTranscribing {
		s.logger.Info("Ignoring webhook for project not transcribing", "project_id", p.ID, "status", p.Status)
		return nil
	}

	if missingText {
		outcome, err = s.transcriber.Fetch(ctx, jobID)
		if err != nil {
			s.logger.Error("Failed to fetch completed transcript", "error", err, "project_id", p.ID)
			return utils.NewUpstreamError("Failed to fetch transcript", err)
		}
	}

	if err := s.applyOutcome(ctx, p, outcome); err != nil {
		s.logger.Error("Failed to apply webhook", "error", err, "project_id", p.ID)
		return utils.WrapInternal("Failed to apply transcription result", err)
	}
	return nil
}

// applyOutcome is shared by the poller and the webhook. The completion write
// is conditional on the project still transcribing, so when both observe
// completion only the first one enqueues analysis.
func (s *Service) applyOutcome(ctx context.Context, p *models.Project, outcome transcriber.Outcome) error {
	switch o := outcome.(type) {
	case transcriber.Completed:
		err := s.projects.CompleteTranscription(ctx, p.ID, o.Text, models.Utterances(o.Utterances))
		if errors.Is(err, models.ErrStatusConflict) {
			s.logger.Info("Transcription already applied", "project_id", p.ID, "transcript_id", o.JobID)
			return nil
		}
		if err != nil {
			return err
		}
		s.logger.Info("Transcription completed", "project_id", p.ID, "transcript_id", o.JobID, "utterances", len(o.Utterances))
		s.enqueue(ctx, p.ID, models.JobAnalyze, time.Now())
		return nil

	case transcriber.Errored:
		err := s.projects.FailTranscription(ctx, p.ID, o.Message)
		if errors.Is(err, models.ErrStatusConflict) {
			return nil
		}
		if err != nil {
			return err
		}
		s.logger.Warn("Transcription failed at provider", "project_id", p.ID, "transcript_id", o.JobID, "message", o.Message)
		return nil

	case transcriber.Pending:
		return nil
	}
	return errors.New("unknown transcription outcome")
}
