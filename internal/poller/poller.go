// ABOUTME: Interval-based polling state machine for one outstanding generation job
// ABOUTME: Inactive -> Polling(jobID) -> Settled, with a durable pointer for resume

package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/reelsync/internal/backend"
	"github.com/2389/reelsync/internal/kv"
)

// DefaultInterval is the fixed delay between status checks.
const DefaultInterval = 10 * time.Second

// StatusFetcher defines what the poller needs from the backend.
type StatusFetcher interface {
	FetchJobStatus(ctx context.Context, jobID string) (*backend.JobStatusResult, error)
}

// Outcome describes how a polling run settled.
type Outcome struct {
	JobID  string
	Status backend.JobStatus // JobCompleted or JobFailed
	Err    string            // server-reported error text, when failed

	// TransportFailure is set when a status check itself failed. Treated as
	// an immediate failure-equivalent: no retry.
	TransportFailure bool
}

// Poller tracks at most one outstanding generation job. Starting a new poll
// cancels any pre-existing one first. The tracked job id is persisted so
// polling can resume after a restart; the pointer is cleared only when the
// job settles, never on teardown.
type Poller struct {
	mu       sync.Mutex
	fetcher  StatusFetcher
	store    kv.Store
	interval time.Duration
	logger   *slog.Logger

	current *Task
	jobID   string
}

// New creates a poller. Zero interval falls back to DefaultInterval.
// Pass nil logger for default.
func New(fetcher StatusFetcher, store kv.Store, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		fetcher:  fetcher,
		store:    store,
		interval: interval,
		logger:   logger.With("component", "poller"),
	}
}

// Start begins polling jobID, cancelling any poll already in progress.
// onSettled is invoked exactly once, when the job reaches a terminal status
// or a status check fails. The job id is persisted before the first check.
func (p *Poller) Start(ctx context.Context, jobID string, onSettled func(Outcome)) {
	p.mu.Lock()
	if p.current != nil {
		p.current.Cancel()
	}
	task := NewTask()
	p.current = task
	p.jobID = jobID
	p.mu.Unlock()

	if err := p.store.Set(kv.KeyCurrentJob, []byte(jobID)); err != nil {
		p.logger.Error("failed to persist job pointer", "job_id", jobID, "error", err)
	}

	p.logger.Debug("polling started", "job_id", jobID)
	go p.run(ctx, task, jobID, onSettled)
}

// Resume restarts polling for a job pointer left over from a previous run.
// Returns the resumed job id, or empty when there was nothing to resume.
func (p *Poller) Resume(ctx context.Context, onSettled func(Outcome)) string {
	raw, err := p.store.Get(kv.KeyCurrentJob)
	if err != nil || len(raw) == 0 {
		return ""
	}
	jobID := string(raw)
	p.logger.Info("resuming job poll", "job_id", jobID)
	p.Start(ctx, jobID, onSettled)
	return jobID
}

// Stop cancels the active poll unconditionally, regardless of which state it
// reached. The durable job pointer is left in place so a later Resume can
// pick the job back up.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		p.current.Cancel()
		p.current = nil
		p.jobID = ""
	}
}

// Active reports whether a poll is in progress.
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// CurrentJob returns the job id under active polling, empty if none.
func (p *Poller) CurrentJob() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jobID
}

// run issues a check immediately, then on every tick until the task settles
// or is cancelled.
func (p *Poller) run(ctx context.Context, task *Task, jobID string, onSettled func(Outcome)) {
	if p.check(ctx, task, jobID, onSettled) {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if p.check(ctx, task, jobID, onSettled) {
				return
			}
		case <-task.Done():
			return
		case <-ctx.Done():
			return
		}
	}
}

// check performs one status fetch. Returns true when the run is over, either
// because the job settled or because the task was cancelled.
func (p *Poller) check(ctx context.Context, task *Task, jobID string, onSettled func(Outcome)) bool {
	// Relevance is captured per check: cancelled before the request, skip it
	if task.Cancelled() {
		return true
	}

	status, err := p.fetcher.FetchJobStatus(ctx, jobID)

	// A stop that landed while the request was in flight wins; the response
	// is discarded, not applied
	if task.Cancelled() {
		return true
	}

	if err != nil {
		p.logger.Warn("status check failed, settling as failure", "job_id", jobID, "error", err)
		p.settle(task, onSettled, Outcome{
			JobID:            jobID,
			Status:           backend.JobFailed,
			TransportFailure: true,
		})
		return true
	}

	if !status.Status.Terminal() {
		p.logger.Debug("job still running", "job_id", jobID, "status", status.Status)
		return false
	}

	p.settle(task, onSettled, Outcome{
		JobID:  jobID,
		Status: status.Status,
		Err:    status.Error,
	})
	return true
}

// settle finalizes a run: cancels the task, clears tracking and the durable
// pointer, then reports the outcome. A run that lost the race against Stop
// or a newer Start is no longer current; it settles silently with no
// mutations at all.
func (p *Poller) settle(task *Task, onSettled func(Outcome), outcome Outcome) {
	task.Cancel()

	p.mu.Lock()
	stillCurrent := p.current == task
	if stillCurrent {
		p.current = nil
		p.jobID = ""
	}
	p.mu.Unlock()

	if !stillCurrent {
		p.logger.Debug("stale job outcome discarded", "job_id", outcome.JobID)
		return
	}

	if err := p.store.Delete(kv.KeyCurrentJob); err != nil {
		p.logger.Error("failed to clear job pointer", "job_id", outcome.JobID, "error", err)
	}

	p.logger.Debug("job settled",
		"job_id", outcome.JobID,
		"status", outcome.Status,
		"transport_failure", outcome.TransportFailure)
	onSettled(outcome)
}
