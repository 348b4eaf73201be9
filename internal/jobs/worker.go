package jobs

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/BerylCAtieno/casevia/internal/models"
	"github.com/BerylCAtieno/casevia/internal/repository"
	"github.com/BerylCAtieno/casevia/internal/utils"
)

const lockTTL = 10 * time.Minute

type Worker struct {
	repo        repository.JobRepository
	registry    *Registry
	locker      Locker
	log         *utils.Logger
	concurrency int
	interval    time.Duration
	now         func() time.Time
}

func NewWorker(repo repository.JobRepository, registry *Registry, locker Locker, logger *utils.Logger, concurrency int, interval time.Duration) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	if locker == nil {
		locker = NewNoopLocker()
	}
	return &Worker{
		repo:        repo,
		registry:    registry,
		locker:      locker,
		log:         logger.With("component", "JobWorker"),
		concurrency: concurrency,
		interval:    interval,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run requeues jobs orphaned by a previous process and then polls the queue
// until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	n, err := w.repo.ResetRunning(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		w.log.Info("Requeued interrupted jobs", "count", n)
	}

	w.log.Info("Starting job worker pool", "concurrency", w.concurrency)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		workerID := i + 1
		g.Go(func() error {
			w.runLoop(ctx, workerID)
			return nil
		})
	}
	return g.Wait()
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			// Drain everything due before waiting for the next tick.
			for ctx.Err() == nil {
				ran, err := w.RunOnce(ctx)
				if err != nil {
					w.log.Warn("Job run failed", "worker_id", workerID, "error", err)
					break
				}
				if !ran {
					break
				}
			}
		}
	}
}

// RunOnce claims and processes a single due job. It reports whether a job
// was claimed.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.repo.ClaimNext(ctx, w.now())
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	log := w.log.With("job_id", job.ID, "kind", job.Kind, "project_id", job.ProjectID, "attempt", job.Attempts)

	h, ok := w.registry.Get(job.Kind)
	if !ok {
		log.Warn("No handler registered for job kind")
		return true, w.repo.Fail(ctx, job.ID, (&missingHandlerError{kind: job.Kind}).Error())
	}

	release, acquired, err := w.locker.Acquire(ctx, "project:"+job.ProjectID, lockTTL)
	if err != nil {
		log.Warn("Lock unavailable, requeueing", "error", err)
		return true, w.repo.Reschedule(ctx, job.ID, w.now().Add(w.interval))
	}
	if !acquired {
		log.Debug("Project busy, requeueing")
		return true, w.repo.Reschedule(ctx, job.ID, w.now().Add(w.interval))
	}
	defer release()

	runErr := w.invoke(ctx, h, job, log)

	if d, ok := RescheduleAfter(runErr); ok {
		return true, w.repo.Reschedule(ctx, job.ID, w.now().Add(d))
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) && ctx.Err() != nil {
			// Shutdown; ResetRunning picks it up on the next start.
			return true, nil
		}
		log.Error("Job failed", "error", runErr)
		return true, w.repo.Fail(ctx, job.ID, runErr.Error())
	}

	log.Debug("Job completed")
	return true, w.repo.Complete(ctx, job.ID)
}

func (w *Worker) invoke(ctx context.Context, h HandlerFunc, job *models.Job, log *utils.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job handler panic", "panic", r)
			err = &panicError{val: r}
		}
	}()
	return h(ctx, job)
}
