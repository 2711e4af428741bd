package tui

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type jobKind string

type jobStatus string

const (
	jobKindDownload jobKind = "download"
)

const (
	jobStatusSucceeded jobStatus = "succeeded"
	jobStatusFailed    jobStatus = "failed"
	jobStatusCanceled  jobStatus = "canceled"
)

type jobSnapshot struct {
	ID          string
	Kind        jobKind
	Status      jobStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Err         string
	Duration    time.Duration
}

type jobResultEnvelope struct {
	Snapshot jobSnapshot
	Payload  tea.Msg
}

type jobRunner func(context.Context) (tea.Msg, error)

// jobBus runs blocking work off the update loop and reports back through a
// jobResultEnvelope carrying the job's ID.
type jobBus struct {
	counter int64
	logger  *log.Logger

	mu      sync.Mutex
	running map[string]chan struct{}
}

func newJobBus(logger *log.Logger) *jobBus {
	return &jobBus{logger: logger, running: make(map[string]chan struct{})}
}

func (b *jobBus) nextID(kind jobKind) string {
	idx := atomic.AddInt64(&b.counter, 1)
	return fmt.Sprintf("%s-%d", kind, idx)
}

// Start returns the job ID and the command that runs it under ctx.
func (b *jobBus) Start(ctx context.Context, kind jobKind, runner jobRunner) (string, tea.Cmd) {
	id := b.nextID(kind)
	started := time.Now()
	done := b.track(id)
	return id, func() tea.Msg {
		defer b.untrack(id, done)
		payload, err := runner(ctx)
		snapshot := jobSnapshot{
			ID:          id,
			Kind:        kind,
			StartedAt:   started,
			CompletedAt: time.Now(),
		}
		switch {
		case err != nil && ctx.Err() != nil:
			snapshot.Status = jobStatusCanceled
			snapshot.Err = err.Error()
		case err != nil:
			snapshot.Status = jobStatusFailed
			snapshot.Err = err.Error()
		default:
			snapshot.Status = jobStatusSucceeded
		}
		snapshot.Duration = snapshot.CompletedAt.Sub(started)
		b.logf("[jobs] %s %s (duration=%s, err=%v)", id, snapshot.Status, snapshot.Duration, err)
		return jobResultEnvelope{Snapshot: snapshot, Payload: payload}
	}
}

func (b *jobBus) track(id string) chan struct{} {
	done := make(chan struct{})
	b.mu.Lock()
	b.running[id] = done
	b.mu.Unlock()
	return done
}

func (b *jobBus) untrack(id string, done chan struct{}) {
	b.mu.Lock()
	delete(b.running, id)
	b.mu.Unlock()
	close(done)
}

// Wait blocks until every started job has returned or timeout passes. It
// reports whether all jobs finished. A job whose command never ran counts as
// unfinished.
func (b *jobBus) Wait(timeout time.Duration) bool {
	b.mu.Lock()
	pending := make([]chan struct{}, 0, len(b.running))
	for _, done := range b.running {
		pending = append(pending, done)
	}
	b.mu.Unlock()
	if len(pending) == 0 {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for _, done := range pending {
		select {
		case <-done:
		case <-timer.C:
			return false
		}
	}
	return true
}

func (b *jobBus) logf(format string, args ...any) {
	if b.logger != nil {
		b.logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
