package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/BerylCAtieno/casevia/internal/analyzer"
	"github.com/BerylCAtieno/casevia/internal/config"
	"github.com/BerylCAtieno/casevia/internal/db"
	"github.com/BerylCAtieno/casevia/internal/jobs"
	"github.com/BerylCAtieno/casevia/internal/models"
	"github.com/BerylCAtieno/casevia/internal/repository"
	"github.com/BerylCAtieno/casevia/internal/storage"
	"github.com/BerylCAtieno/casevia/internal/transcriber"
	"github.com/BerylCAtieno/casevia/internal/utils"
)

const draftJSON = `{
	"title": "How Acme Corp Increased Leads by 300%!",
	"summary": "Acme rebuilt its funnel.",
	"challenge": "Leads were flat.",
	"solution": "Automated outreach.",
	"results": "Leads tripled.",
	"metrics": [{"label": "more leads", "value": "300%"}],
	"quotes": [{"text": "It just works", "speaker": "Jane"}],
	"key_takeaways": ["Automate early"],
	"seo_title": "Acme case study",
	"seo_description": "How Acme tripled leads",
	"linkedin_post": "Acme tripled leads.",
	"twitter_post": "300% more leads"
}`

type fakeTranscriber struct {
	mu         sync.Mutex
	submitID   string
	submitErr  error
	submitted  []string
	opts       []transcriber.SubmitOptions
	outcome    transcriber.Outcome
	fetchErr   error
	fetchCalls int
}

func (f *fakeTranscriber) Submit(ctx context.Context, audioURL string, opts transcriber.SubmitOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.submitted = append(f.submitted, audioURL)
	f.opts = append(f.opts, opts)
	return f.submitID, nil
}

func (f *fakeTranscriber) Fetch(ctx context.Context, jobID string) (transcriber.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.outcome, nil
}

// fakeAnalyzer parses a canned model response the way the real client does.
type fakeAnalyzer struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	inputs   []string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, transcript string) (*models.AnalysisDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.inputs = append(f.inputs, transcript)
	if f.err != nil {
		return nil, f.err
	}
	return analyzer.ParseDraft(f.response)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeNotifier) NotifyCaseStudyReady(ctx context.Context, to, projectName, caseStudyID, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	return f.err
}

type harness struct {
	svc         *Service
	conn        *sqlx.DB
	projects    repository.ProjectRepository
	caseStudies repository.CaseStudyRepository
	jobRepo     repository.JobRepository
	orgs        repository.OrganizationRepository
	storage     *storage.MemoryStorage
	transcriber *fakeTranscriber
	analyzer    *fakeAnalyzer
	notifier    *fakeNotifier
	worker      *jobs.Worker
	cfg         *config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	path := filepath.Join(t.TempDir(), "casevia.db")
	if err := db.RunMigrations(path); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	conn, err := db.Open(path)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	cfg := &config.Config{
		WebhookSecret:         "s3cret",
		PublicBaseURL:         "https://casevia.test",
		PollInterval:          time.Millisecond,
		MaxPollAttempts:       3,
		SlugMaxAttempts:       1000,
		DefaultOrganizationID: "org-1",
	}

	h := &harness{
		conn:        conn,
		projects:    repository.NewProjectRepository(conn),
		caseStudies: repository.NewCaseStudyRepository(conn),
		jobRepo:     repository.NewJobRepository(conn),
		orgs:        repository.NewOrganizationRepository(conn),
		storage:     storage.NewMemoryStorage("https://files.test"),
		transcriber: &fakeTranscriber{submitID: "tr-1"},
		analyzer:    &fakeAnalyzer{response: draftJSON},
		notifier:    &fakeNotifier{},
		cfg:         cfg,
	}
	h.svc = NewService(Dependencies{
		Projects:      h.projects,
		CaseStudies:   h.caseStudies,
		Jobs:          h.jobRepo,
		Organizations: h.orgs,
		Storage:       h.storage,
		Transcriber:   h.transcriber,
		Analyzer:      h.analyzer,
		Notifier:      h.notifier,
		Config:        cfg,
		Logger:        utils.NewNopLogger(),
	})

	registry := jobs.NewRegistry()
	h.svc.RegisterJobs(registry)
	h.worker = jobs.NewWorker(h.jobRepo, registry, nil, utils.NewNopLogger(), 1, time.Millisecond)
	return h
}

// drain runs due jobs until the queue is empty or limit runs happened.
func (h *harness) drain(t *testing.T, limit int) int {
	t.Helper()
	ctx := context.Background()
	runs := 0
	for runs < limit {
		ran, err := h.worker.RunOnce(ctx)
		if err != nil {
			t.Fatalf("RunOnce: %v", err)
		}
		if !ran {
			// Rescheduled jobs may be a few milliseconds out.
			time.Sleep(5 * time.Millisecond)
			ran, err = h.worker.RunOnce(ctx)
			if err != nil {
				t.Fatalf("RunOnce: %v", err)
			}
			if !ran {
				break
			}
		}
		runs++
	}
	return runs
}

func (h *harness) project(t *testing.T, id string) *models.Project {
	t.Helper()
	p, err := h.projects.GetByID(context.Background(), id)
	if err != nil || p == nil {
		t.Fatalf("GetByID(%s) = %v, %v", id, p, err)
	}
	return p
}

func (h *harness) uploadMedia(t *testing.T) string {
	t.Helper()
	resp, err := h.svc.Upload(context.Background(), &models.UploadRequest{
		OrganizationID:  "org-1",
		File:            []byte("ID3 fake audio"),
		FileName:        "interview.mp3",
		ContentType:     "audio/mpeg",
		DurationSeconds: 600,
		NotifyEmail:     "owner@example.com",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	return resp.ID
}

func (h *harness) jobsOfKind(t *testing.T, projectID string, kind models.JobKind) []models.Job {
	t.Helper()
	all, err := h.jobRepo.ListByProject(context.Background(), projectID)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	var out []models.Job
	for _, j := range all {
		if j.Kind == kind {
			out = append(out, j)
		}
	}
	return out
}

