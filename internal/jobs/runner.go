package jobs

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

const defaultPollInterval = 5 * time.Second

// Runner executes pending jobs one at a time, oldest first. It polls the
// repository and also wakes immediately when the Service enqueues.
type Runner struct {
	service      *Service
	repo         Repository
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool

	mu      sync.Mutex
	current string
	cancel  context.CancelFunc
}

func NewRunner(service *Service, repo Repository, logger *slog.Logger) *Runner {
	return &Runner{
		service:      service,
		repo:         repo,
		logger:       logger.With("component", "runner"),
		pollInterval: defaultPollInterval,
	}
}

// Start blocks until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}
	defer r.running.Store(false)

	r.logger.Info("job runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			return
		case <-ticker.C:
		case <-r.service.Wake():
		}
		if !r.paused.Load() {
			r.drain(ctx)
		}
	}
}

func (r *Runner) drain(ctx context.Context) {
	for ctx.Err() == nil && !r.paused.Load() {
		if !r.processNextJob(ctx) {
			return
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
	select {
	case r.service.wake <- struct{}{}:
	default:
	}
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// Cancel stops a running job, killing its encoder, or fails a pending one.
func (r *Runner) Cancel(ctx context.Context, id string) error {
	r.mu.Lock()
	if r.current == id && r.cancel != nil {
		r.cancel()
		r.mu.Unlock()
		r.logger.Info("job cancel requested", "job_id", id)
		return nil
	}
	r.mu.Unlock()

	job, err := r.service.GetJob(ctx, id)
	if err != nil {
		return err
	}
	if job.Finished() {
		return ErrJobFinished
	}
	return r.repo.UpdateJobStatus(ctx, id, StatusFailed, cancelledMessage)
}

// processNextJob runs the oldest pending job and reports whether there was
// one.
func (r *Runner) processNextJob(ctx context.Context) bool {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return false
	}
	if len(jobs) == 0 {
		return false
	}

	job := jobs[0]
	logger := r.logger.With("job_id", job.ID, "type", job.Type)
	logger.Info("processing job")

	if err := r.repo.UpdateJobStatus(ctx, job.ID, StatusRunning, ""); err != nil {
		logger.Error("failed to mark job running", "error", err)
		return false
	}

	jobCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.current = job.ID
	r.cancel = cancel
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.current = ""
		r.cancel = nil
		r.mu.Unlock()
		cancel()
	}()

	start := time.Now()
	result, err := r.service.Execute(jobCtx, job, r.progressReporter(ctx, job.ID))
	if err != nil {
		msg := err.Error()
		if errors.Is(err, context.Canceled) {
			msg = cancelledMessage
		}
		// Use the parent context: jobCtx may already be cancelled.
		if uerr := r.repo.UpdateJobStatus(context.WithoutCancel(ctx), job.ID, StatusFailed, msg); uerr != nil {
			logger.Error("failed to mark job failed", "error", uerr)
		}
		logger.Warn("job failed", "error", err, "duration", time.Since(start))
		return true
	}

	if err := r.repo.CompleteJob(ctx, job.ID, result); err != nil {
		logger.Error("failed to mark job completed", "error", err)
	}
	logger.Info("job completed", "duration", time.Since(start))
	return true
}

// progressReporter persists whole-percent changes only.
func (r *Runner) progressReporter(ctx context.Context, id string) func(float64) {
	last := -1
	var mu sync.Mutex
	return func(pct float64) {
		p := int(math.Floor(pct))
		mu.Lock()
		defer mu.Unlock()
		if p <= last {
			return
		}
		last = p
		if err := r.repo.UpdateJobProgress(ctx, id, p); err != nil {
			r.logger.Debug("progress update failed", "job_id", id, "error", err)
		}
	}
}

// ActiveJobCount counts jobs that are pending or running.
func (r *Runner) ActiveJobCount(ctx context.Context) int {
	pending, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		return 0
	}
	count := len(pending)
	r.mu.Lock()
	if r.current != "" {
		count++
	}
	r.mu.Unlock()
	return count
}
