// Package job polls the download API until a job reaches a terminal state.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vmunix/igrab/internal/api"
)

const (
	// DefaultInterval is the cadence between status requests.
	DefaultInterval = 2 * time.Second

	// DefaultMaxAttempts bounds how many status requests one poll may make.
	DefaultMaxAttempts = 120
)

// Sentinel errors for the job package.
var (
	// ErrTimeout is returned when the attempt budget is exhausted without a
	// terminal state.
	ErrTimeout = errors.New("job polling timed out")

	// ErrJobFailed is returned when the server reports the job itself failed.
	ErrJobFailed = errors.New("job failed")

	// ErrCancelled is returned when the poll loop is severed before a
	// terminal state.
	ErrCancelled = errors.New("job polling cancelled")
)

// StatusClient fetches job status snapshots.
type StatusClient interface {
	Status(ctx context.Context, jobID string) (*api.JobStatus, error)
}

// TickFunc observes one completed poll tick. attempt counts from 1 up to max;
// status is the snapshot that tick received.
type TickFunc func(attempt, max int, status *api.JobStatus)

// Result is the payload of a completed job.
type Result struct {
	MediaURLs []string
	Attempts  int
}

// Poller drives one job to a terminal state at a fixed cadence.
// A Poller is single-use: create one per job.
type Poller struct {
	client      StatusClient
	interval    time.Duration
	maxAttempts int
	onTick      TickFunc
	log         *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the polling cadence.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		p.interval = d
	}
}

// WithMaxAttempts sets the attempt budget.
func WithMaxAttempts(n int) Option {
	return func(p *Poller) {
		p.maxAttempts = n
	}
}

// WithTickFunc registers a callback invoked after every status request.
func WithTickFunc(fn TickFunc) Option {
	return func(p *Poller) {
		p.onTick = fn
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(p *Poller) {
		p.log = log.With("component", "poller")
	}
}

// New creates a poller for the given status client.
func New(client StatusClient, opts ...Option) *Poller {
	p := &Poller{
		client:      client,
		interval:    DefaultInterval,
		maxAttempts: DefaultMaxAttempts,
		log:         slog.Default().With("component", "poller"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll queries job status every interval until the server reports a terminal
// state, the attempt budget runs out, or the poll is cancelled. A transport
// failure on any tick ends the loop with that error; there is no per-tick
// retry. The ticker is always released before Poll returns.
func (p *Poller) Poll(ctx context.Context, jobID string) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()
	defer p.Cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Debug("polling started", "job_id", jobID, "interval", p.interval, "max_attempts", p.maxAttempts)

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			p.log.Debug("polling cancelled", "job_id", jobID, "attempt", attempt)
			return nil, fmt.Errorf("poll job %s: %w", jobID, ErrCancelled)
		case <-ticker.C:
		}

		status, err := p.client.Status(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("poll job %s: %w", jobID, err)
		}

		if p.onTick != nil {
			p.onTick(attempt, p.maxAttempts, status)
		}

		switch status.Status {
		case api.StateCompleted:
			// A completed job can still carry a job-level error in its result.
			if status.Result != nil && status.Result.Error != "" {
				return nil, fmt.Errorf("%w: %s", ErrJobFailed, status.Result.Error)
			}
			var urls []string
			if status.Result != nil {
				urls = status.Result.MediaURLs
			}
			p.log.Debug("job completed", "job_id", jobID, "attempts", attempt, "media_urls", len(urls))
			return &Result{MediaURLs: urls, Attempts: attempt}, nil

		case api.StateFailed:
			reason := "Unknown error"
			if status.Result != nil && status.Result.Error != "" {
				reason = status.Result.Error
			}
			p.log.Debug("job failed", "job_id", jobID, "reason", reason)
			return nil, fmt.Errorf("%w: %s", ErrJobFailed, reason)
		}
	}

	p.log.Debug("polling timed out", "job_id", jobID, "attempts", p.maxAttempts)
	return nil, fmt.Errorf("poll job %s: %w", jobID, ErrTimeout)
}

// Cancel severs the poll loop. It is idempotent and safe to call after the
// poll has already terminated.
func (p *Poller) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
