package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/BerylCAtieno/casevia/internal/db"
	"github.com/BerylCAtieno/casevia/internal/models"
	"github.com/jmoiron/sqlx"
)

func newTestDB(t *testing.T) *sqlx.DB {
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
	return conn
}

func seedProject(t *testing.T, conn *sqlx.DB, id string, status models.ProjectStatus) *models.Project {
	t.Helper()
	ctx := context.Background()

	if _, err := NewOrganizationRepository(conn).GetOrCreate(ctx, "org-1"); err != nil {
		t.Fatalf("create organization: %v", err)
	}

	now := time.Now().UTC()
	p := &models.Project{
		ID:             id,
		OrganizationID: "org-1",
		Status:         status,
		FileURL:        "https://files.example.com/" + id,
		FileKey:        "projects/" + id + "/interview.mp3",
		FileName:       "interview.mp3",
		FileSize:       1024,
		ContentType:    "audio/mpeg",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := NewProjectRepository(conn).Create(ctx, p); err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

func TestProjectLifecycle(t *testing.T) {
	conn := newTestDB(t)
	repo := NewProjectRepository(conn)
	ctx := context.Background()
	seedProject(t, conn, "p1", models.StatusUploading)

	if err := repo.StartTranscription(ctx, "p1", "aai-1"); err != nil {
		t.Fatalf("StartTranscription: %v", err)
	}

	byJob, err := repo.GetByAssemblyAIID(ctx, "aai-1")
	if err != nil || byJob == nil || byJob.ID != "p1" {
		t.Fatalf("GetByAssemblyAIID = %v, %v", byJob, err)
	}

	utterances := models.Utterances{{Speaker: "A", Text: "Hello"}, {Speaker: "B", Text: "Hi"}}
	if err := repo.CompleteTranscription(ctx, "p1", "Hello Hi", utterances); err != nil {
		t.Fatalf("CompleteTranscription: %v", err)
	}

	// A second completion loses the race.
	if err := repo.CompleteTranscription(ctx, "p1", "other", nil); !errors.Is(err, models.ErrStatusConflict) {
		t.Fatalf("second CompleteTranscription err = %v, want ErrStatusConflict", err)
	}

	p, err := repo.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if p.Status != models.StatusAnalyzing {
		t.Errorf("status = %s, want analyzing", p.Status)
	}
	if p.Transcript == nil || *p.Transcript != "Hello Hi" {
		t.Errorf("transcript = %v", p.Transcript)
	}
	if len(p.SpeakerLabels) != 2 || p.SpeakerLabels[1].Speaker != "B" {
		t.Errorf("speaker labels = %+v", p.SpeakerLabels)
	}

	if err := repo.UpdateStatus(ctx, "p1", models.StatusAnalyzing, models.StatusUploading); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("UpdateStatus analyzing to uploading err = %v", err)
	}
	if err := repo.UpdateStatus(ctx, "p1", models.StatusAnalyzing, models.StatusReady); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := repo.MarkFailed(ctx, "p1", "late failure"); !errors.Is(err, models.ErrStatusConflict) {
		t.Fatalf("MarkFailed on ready project err = %v", err)
	}
}

func TestGetByIDMissing(t *testing.T) {
	conn := newTestDB(t)
	p, err := NewProjectRepository(conn).GetByID(context.Background(), "nope")
	if err != nil || p != nil {
		t.Fatalf("GetByID(missing) = %v, %v", p, err)
	}
}

func TestResetForRetryClearsTranscript(t *testing.T) {
	conn := newTestDB(t)
	repo := NewProjectRepository(conn)
	ctx := context.Background()
	seedProject(t, conn, "p1", models.StatusUploading)

	if err := repo.StartTranscription(ctx, "p1", "aai-1"); err != nil {
		t.Fatal(err)
	}
	if err := repo.CompleteTranscription(ctx, "p1", "text", nil); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkFailed(ctx, "p1", "Failed to analyze transcript"); err != nil {
		t.Fatal(err)
	}

	if err := repo.ResetForRetry(ctx, "p1", models.StatusTranscribing); err != nil {
		t.Fatalf("ResetForRetry: %v", err)
	}
	p, _ := repo.GetByID(ctx, "p1")
	if p.Status != models.StatusTranscribing || p.ErrorMessage != nil || p.Transcript != nil || p.AssemblyAIID != nil {
		t.Fatalf("unexpected project after retry: %+v", p)
	}

	if err := repo.ResetForRetry(ctx, "p1", models.StatusTranscribing); !errors.Is(err, models.ErrStatusConflict) {
		t.Fatalf("retry of non-failed project err = %v", err)
	}
}

func TestJobEnqueueIsAtMostOncePerProjectAndKind(t *testing.T) {
	conn := newTestDB(t)
	jobs := NewJobRepository(conn)
	ctx := context.Background()
	seedProject(t, conn, "p1", models.StatusTranscribing)

	now := time.Now().UTC()
	newJob := func(id string) *models.Job {
		return &models.Job{ID: id, ProjectID: "p1", Kind: models.JobAnalyze, Status: models.JobQueued, RunAt: now, CreatedAt: now, UpdatedAt: now}
	}

	inserted, err := jobs.Enqueue(ctx, newJob("j1"))
	if err != nil || !inserted {
		t.Fatalf("first Enqueue = %v, %v", inserted, err)
	}
	inserted, err = jobs.Enqueue(ctx, newJob("j2"))
	if err != nil || inserted {
		t.Fatalf("duplicate Enqueue = %v, %v", inserted, err)
	}

	claimed, err := jobs.ClaimNext(ctx, now.Add(time.Second))
	if err != nil || claimed == nil || claimed.ID != "j1" {
		t.Fatalf("ClaimNext = %+v, %v", claimed, err)
	}
	if claimed.Attempts != 1 || claimed.Status != models.JobRunning {
		t.Fatalf("claimed job = %+v", claimed)
	}

	again, err := jobs.ClaimNext(ctx, now.Add(time.Second))
	if err != nil || again != nil {
		t.Fatalf("second ClaimNext = %+v, %v", again, err)
	}

	// Still active while running.
	if inserted, _ := jobs.Enqueue(ctx, newJob("j3")); inserted {
		t.Fatal("enqueue while running should be a no-op")
	}

	if err := jobs.Complete(ctx, "j1"); err != nil {
		t.Fatal(err)
	}
	if inserted, _ := jobs.Enqueue(ctx, newJob("j4")); !inserted {
		t.Fatal("enqueue after completion should insert")
	}
}

func TestJobRescheduleAndReset(t *testing.T) {
	conn := newTestDB(t)
	jobs := NewJobRepository(conn)
	ctx := context.Background()
	seedProject(t, conn, "p1", models.StatusTranscribing)

	now := time.Now().UTC()
	job := &models.Job{ID: "j1", ProjectID: "p1", Kind: models.JobPollTranscription, Status: models.JobQueued, RunAt: now, CreatedAt: now, UpdatedAt: now}
	if _, err := jobs.Enqueue(ctx, job); err != nil {
		t.Fatal(err)
	}

	if _, err := jobs.ClaimNext(ctx, now); err != nil {
		t.Fatal(err)
	}
	if err := jobs.Reschedule(ctx, "j1", now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if j, _ := jobs.ClaimNext(ctx, now.Add(time.Minute)); j != nil {
		t.Fatal("job claimed before run_at")
	}
	j, err := jobs.ClaimNext(ctx, now.Add(2*time.Hour))
	if err != nil || j == nil || j.Attempts != 2 {
		t.Fatalf("ClaimNext after run_at = %+v, %v", j, err)
	}

	n, err := jobs.ResetRunning(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ResetRunning = %d, %v", n, err)
	}
	list, err := jobs.ListByProject(ctx, "p1")
	if err != nil || len(list) != 1 || list[0].Status != models.JobQueued {
		t.Fatalf("ListByProject = %+v, %v", list, err)
	}
}

func TestJobRestartClearsAttempts(t *testing.T) {
	conn := newTestDB(t)
	jobs := NewJobRepository(conn)
	ctx := context.Background()
	seedProject(t, conn, "p1", models.StatusTranscribing)

	if ok, err := jobs.Restart(ctx, "p1", models.JobPollTranscription, time.Now()); err != nil || ok {
		t.Fatalf("Restart with no job = %v, %v", ok, err)
	}

	now := time.Now().UTC()
	job := &models.Job{ID: "j1", ProjectID: "p1", Kind: models.JobPollTranscription, Status: models.JobQueued, RunAt: now, CreatedAt: now, UpdatedAt: now}
	if _, err := jobs.Enqueue(ctx, job); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := jobs.ClaimNext(ctx, now.Add(time.Second)); err != nil {
			t.Fatal(err)
		}
		if err := jobs.Reschedule(ctx, "j1", now); err != nil {
			t.Fatal(err)
		}
	}

	later := now.Add(time.Hour)
	ok, err := jobs.Restart(ctx, "p1", models.JobPollTranscription, later)
	if err != nil || !ok {
		t.Fatalf("Restart = %v, %v", ok, err)
	}
	if j, _ := jobs.ClaimNext(ctx, now.Add(time.Minute)); j != nil {
		t.Fatal("restarted job claimed before its new run_at")
	}
	j, err := jobs.ClaimNext(ctx, later)
	if err != nil || j == nil || j.Attempts != 1 {
		t.Fatalf("ClaimNext after restart = %+v, %v", j, err)
	}

	if err := jobs.Complete(ctx, "j1"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := jobs.Restart(ctx, "p1", models.JobPollTranscription, later); ok {
		t.Fatal("Restart touched a finished job")
	}
}

func TestCaseStudyCreateAndPublish(t *testing.T) {
	conn := newTestDB(t)
	repo := NewCaseStudyRepository(conn)
	ctx := context.Background()
	seedProject(t, conn, "p1", models.StatusAnalyzing)
	seedProject(t, conn, "p2", models.StatusAnalyzing)

	now := time.Now().UTC()
	newCaseStudy := func(id, projectID string) *models.CaseStudy {
		return &models.CaseStudy{
			ID: id, ProjectID: projectID, OrganizationID: "org-1",
			Title: "How Acme Won", Slug: "how-acme-won", Status: models.CaseStudyDraft,
			Metrics:      models.JSONList[models.Metric]{{Label: "Leads", Value: "+300%"}},
			KeyTakeaways: models.JSONList[string]{"ship faster"},
			CreatedAt:    now, UpdatedAt: now,
		}
	}

	posts := []models.SocialPost{
		{ID: "sp1", CaseStudyID: "cs1", ProjectID: "p1", Platform: models.PlatformLinkedIn, Content: "post", CreatedAt: now},
		{ID: "sp2", CaseStudyID: "cs1", ProjectID: "p1", Platform: models.PlatformTwitter, Content: "tweet", CreatedAt: now},
	}
	if err := repo.CreateWithPosts(ctx, newCaseStudy("cs1", "p1"), posts); err != nil {
		t.Fatalf("CreateWithPosts: %v", err)
	}
	if err := repo.CreateWithPosts(ctx, newCaseStudy("cs9", "p1"), nil); !errors.Is(err, ErrCaseStudyExists) {
		t.Fatalf("duplicate CreateWithPosts err = %v", err)
	}
	if err := repo.CreateWithPosts(ctx, newCaseStudy("cs2", "p2"), nil); err != nil {
		t.Fatal(err)
	}

	cs, err := repo.GetByProjectID(ctx, "p1")
	if err != nil || cs == nil || cs.ID != "cs1" {
		t.Fatalf("GetByProjectID = %+v, %v", cs, err)
	}
	if len(cs.Metrics) != 1 || cs.Metrics[0].Value != "+300%" || cs.KeyTakeaways[0] != "ship faster" {
		t.Fatalf("json columns not round-tripped: %+v", cs)
	}

	list, err := repo.ListSocialPosts(ctx, "cs1")
	if err != nil || len(list) != 2 {
		t.Fatalf("ListSocialPosts = %+v, %v", list, err)
	}

	taken, err := repo.SlugTakenByOther(ctx, "how-acme-won", "cs1")
	if err != nil || taken {
		t.Fatalf("draft slug counted as taken: %v, %v", taken, err)
	}

	if err := repo.Publish(ctx, "cs1", "how-acme-won", now); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if taken, _ := repo.SlugTakenByOther(ctx, "how-acme-won", "cs2"); !taken {
		t.Fatal("published slug not reported taken")
	}
	if taken, _ := repo.SlugTakenByOther(ctx, "how-acme-won", "cs1"); taken {
		t.Fatal("own slug reported taken")
	}
	if err := repo.Publish(ctx, "cs2", "how-acme-won", now); !errors.Is(err, models.ErrSlugTaken) {
		t.Fatalf("publishing a taken slug err = %v", err)
	}

	pub, err := repo.GetPublishedBySlug(ctx, "how-acme-won")
	if err != nil || pub == nil || pub.ID != "cs1" || pub.PublishedAt == nil {
		t.Fatalf("GetPublishedBySlug = %+v, %v", pub, err)
	}

	if err := repo.Unpublish(ctx, "cs1"); err != nil {
		t.Fatal(err)
	}
	if pub, _ := repo.GetPublishedBySlug(ctx, "how-acme-won"); pub != nil {
		t.Fatal("unpublished case study still public")
	}
}

func TestOrganizationUsage(t *testing.T) {
	conn := newTestDB(t)
	orgs := NewOrganizationRepository(conn)
	ctx := context.Background()

	org, err := orgs.GetOrCreate(ctx, "org-1")
	if err != nil || org.Plan != "free" {
		t.Fatalf("GetOrCreate = %+v, %v", org, err)
	}
	if err := orgs.SetPlan(ctx, "org-1", "pro"); err != nil {
		t.Fatal(err)
	}
	org, _ = orgs.GetOrCreate(ctx, "org-1")
	if org.Plan != "pro" {
		t.Fatalf("plan = %s, want pro", org.Plan)
	}

	seedProject(t, conn, "p1", models.StatusUploading)
	seedProject(t, conn, "p2", models.StatusUploading)

	usage, err := orgs.Usage(ctx, "org-1")
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if usage.StorageBytes != 2048 || usage.CaseStudies != 0 {
		t.Fatalf("usage = %+v", usage)
	}
}
