// Package jobs runs the durable background work of the pipeline: polling
// transcription providers and invoking analysis.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BerylCAtieno/casevia/internal/models"
)

// HandlerFunc processes one claimed job. Returning nil completes the job;
// returning a Reschedule error puts it back on the queue.
type HandlerFunc func(ctx context.Context, job *models.Job) error

type Registry struct {
	mu       sync.RWMutex
	handlers map[models.JobKind]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[models.JobKind]HandlerFunc)}
}

func (r *Registry) Register(kind models.JobKind, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

func (r *Registry) Get(kind models.JobKind) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

type rescheduleError struct {
	after time.Duration
}

func (e *rescheduleError) Error() string {
	return fmt.Sprintf("reschedule in %s", e.after)
}

// Reschedule tells the worker to run the job again after d.
func Reschedule(d time.Duration) error {
	return &rescheduleError{after: d}
}

// RescheduleAfter reports the delay carried by a Reschedule error.
func RescheduleAfter(err error) (time.Duration, bool) {
	var re *rescheduleError
	if errors.As(err, &re) {
		return re.after, true
	}
	return 0, false
}

type missingHandlerError struct{ kind models.JobKind }

func (e *missingHandlerError) Error() string { return "no handler registered for kind=" + string(e.kind) }

type panicError struct{ val any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.val) }
