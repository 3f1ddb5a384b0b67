// Package orchestrator drives a download invocation end to end: submit the
// job, wait out the server phase, fan the media URLs out to bounded
// concurrent fetches, and pack the successes into one archive.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vmunix/igrab/internal/api"
	"github.com/vmunix/igrab/internal/archive"
	"github.com/vmunix/igrab/internal/fetch"
	"github.com/vmunix/igrab/internal/history"
	"github.com/vmunix/igrab/internal/job"
	"github.com/vmunix/igrab/internal/progress"
)

// DefaultConcurrency bounds the fetch fan-out when not configured.
const DefaultConcurrency = 4

// Client is the slice of the API client the orchestrator depends on.
type Client interface {
	Submit(ctx context.Context, target string, mode api.Mode) (api.SubmissionOutcome, error)
	Status(ctx context.Context, jobID string) (*api.JobStatus, error)
	ProfileInfo(ctx context.Context, username string) (*api.Profile, error)
}

// Request describes one download invocation.
type Request struct {
	Target string
	Mode   api.Mode
}

// Outcome is the result of a successful invocation. Archive is nil when the
// target resolved to zero media items.
type Outcome struct {
	InvocationID string
	ArchiveName  string
	Archive      []byte
	Requested    int
	Archived     int
	Failed       int
	Elapsed      time.Duration
}

// invocation is the supersede handle for the single active download. Holding
// it as an explicit value makes "at most one active job" a checked step
// rather than an accident of timer overwrites.
type invocation struct {
	cancel context.CancelFunc
}

// Orchestrator coordinates one download invocation at a time. Starting a new
// Run severs any invocation still in its server phase.
type Orchestrator struct {
	client      Client
	fetcher     *fetch.Fetcher
	tracker     *progress.Tracker
	store       *history.Store
	log         *slog.Logger
	concurrency int
	pollOpts    []job.Option

	mu      sync.Mutex
	current *invocation
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithHistory records invocations in store.
func WithHistory(store *history.Store) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.log = log.With("component", "orchestrator")
	}
}

// WithConcurrency bounds the fetch fan-out.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithPollOptions forwards options to the per-invocation job poller.
func WithPollOptions(opts ...job.Option) Option {
	return func(o *Orchestrator) {
		o.pollOpts = append(o.pollOpts, opts...)
	}
}

// New creates an orchestrator.
func New(client Client, fetcher *fetch.Fetcher, tracker *progress.Tracker, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:      client,
		fetcher:     fetcher,
		tracker:     tracker,
		log:         slog.Default().With("component", "orchestrator"),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one download invocation. Hard failures (submission, job
// failure, timeout, cancellation) return an error after reporting it through
// the tracker; per-item fetch failures are tolerated unless every fetch
// fails.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Outcome, error) {
	target := strings.TrimSpace(req.Target)
	if target == "" {
		return nil, ErrEmptyTarget
	}
	mode := req.Mode
	if mode == "" {
		mode = api.ModeAuto
	}

	ctx, done := o.begin(ctx)
	defer done()

	start := time.Now()
	rec := &history.Record{
		ID:     uuid.NewString(),
		Target: target,
		Mode:   string(mode),
		Status: history.StatusRunning,
	}
	o.record(func() error { return o.store.Add(rec) })

	o.preview(ctx, target, mode)

	o.tracker.SetPhaseFraction(progress.PhaseServer, 0)
	o.tracker.Message(fmt.Sprintf("Submitting download for %s...", target), progress.Info)

	outcome, err := o.client.Submit(ctx, target, mode)
	if err != nil {
		return nil, o.fail(rec, err)
	}

	var urls []string
	if outcome.Async() {
		urls, err = o.awaitJob(ctx, outcome.JobID())
		if err != nil {
			return nil, o.fail(rec, err)
		}
	} else {
		// Synchronous contract: the server already did its work.
		urls = outcome.MediaURLs()
	}
	o.tracker.SetPhaseFraction(progress.PhaseServer, 1)

	if len(urls) == 0 {
		o.tracker.Message("No media found to download.", progress.Info)
		o.finish(rec, history.StatusCompleted, 0, 0, "")
		return &Outcome{
			InvocationID: rec.ID,
			Requested:    0,
			Archived:     0,
			Elapsed:      time.Since(start),
		}, nil
	}

	o.tracker.Message(fmt.Sprintf("Found %d files. Preparing to download and zip...", len(urls)), progress.Info)

	// Past this point the invocation runs to completion: the fetch batch and
	// the archive build are not cancellable.
	results := o.fanOut(context.WithoutCancel(ctx), urls)

	builder := archive.NewBuilder()
	failed := 0
	for _, res := range results {
		if !res.OK() {
			failed++
			o.log.Warn("media fetch failed", "url", res.URL, "error", res.Err)
			continue
		}
		if err := builder.Add(res.Filename, res.Data); err != nil {
			failed++
			o.log.Warn("archive entry failed", "file", res.Filename, "error", err)
		}
	}

	if builder.Len() == 0 {
		err := fmt.Errorf("%w: the media host may be blocking requests", ErrAllFetchesFailed)
		return nil, o.fail(rec, err)
	}

	o.tracker.Message("Creating zip file...", progress.Info)
	blob, err := builder.Finalize()
	if err != nil {
		return nil, o.fail(rec, fmt.Errorf("finalize archive: %w", err))
	}

	name := archive.Name(target)
	o.tracker.SetPhaseFraction(progress.PhaseClient, 1)
	o.tracker.Message(fmt.Sprintf("%d files zipped successfully!", builder.Len()), progress.Info)

	o.finish(rec, history.StatusCompleted, len(urls), builder.Len(), name)
	o.log.Info("download complete",
		"target", target,
		"requested", len(urls),
		"archived", builder.Len(),
		"failed", failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return &Outcome{
		InvocationID: rec.ID,
		ArchiveName:  name,
		Archive:      blob,
		Requested:    len(urls),
		Archived:     builder.Len(),
		Failed:       failed,
		Elapsed:      time.Since(start),
	}, nil
}

// Cancel severs the active invocation, if any. Safe to call at any time.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current != nil {
		o.current.cancel()
	}
}

// begin installs this run as the single active invocation, superseding any
// previous one first.
func (o *Orchestrator) begin(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	inv := &invocation{cancel: cancel}

	o.mu.Lock()
	if o.current != nil {
		o.log.Debug("superseding previous invocation")
		o.current.cancel()
	}
	o.current = inv
	o.mu.Unlock()

	// Each invocation starts its progress from zero.
	o.tracker.Reset()

	return ctx, func() {
		o.mu.Lock()
		if o.current == inv {
			o.current = nil
		}
		o.mu.Unlock()
		cancel()
	}
}

// awaitJob drives the poller for an asynchronous submission, feeding the
// server-phase fraction from the tick budget.
func (o *Orchestrator) awaitJob(ctx context.Context, jobID string) ([]string, error) {
	opts := append([]job.Option{
		job.WithLogger(o.log),
		job.WithTickFunc(func(attempt, max int, status *api.JobStatus) {
			o.tracker.SetPhaseFraction(progress.PhaseServer, float64(attempt)/float64(max))
			msg := status.Progress
			if msg == "" {
				msg = string(status.Status)
			}
			o.tracker.Message(msg, progress.Info)
		}),
	}, o.pollOpts...)

	result, err := job.New(o.client, opts...).Poll(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return result.MediaURLs, nil
}

// fanOut fetches every URL through a bounded worker pool and waits for the
// whole batch to settle. Failures are captured per result, never propagated.
func (o *Orchestrator) fanOut(ctx context.Context, urls []string) []fetch.Result {
	results := make([]fetch.Result, len(urls))
	var settled atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(o.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = o.fetcher.Fetch(ctx, u)
			n := settled.Add(1)
			o.tracker.SetPhaseFraction(progress.PhaseClient, float64(n)/float64(len(urls)))
			o.tracker.Message(fmt.Sprintf("Downloading & zipping: %d / %d", n, len(urls)), progress.Info)
			return nil
		})
	}
	// Workers never return errors; this is an all-complete join.
	_ = g.Wait()
	return results
}

// preview reports best-effort target metadata before the download starts.
// Any failure here is logged and swallowed; it never affects the outcome.
func (o *Orchestrator) preview(ctx context.Context, target string, mode api.Mode) {
	if isPostTarget(target, mode) {
		o.tracker.Message("Single post/reel: "+target, progress.Info)
		return
	}

	username := usernameFromTarget(target)
	if username == "" {
		return
	}

	p, err := o.client.ProfileInfo(ctx, username)
	if err != nil {
		o.log.Debug("preview unavailable", "username", username, "error", err)
		return
	}

	visibility := "public"
	if p.IsPrivate {
		visibility = "private"
	}
	o.tracker.Message(fmt.Sprintf("Profile %s (%s): %d posts, %d followers, %s",
		p.Username, p.FullName, p.Posts, p.Followers, visibility), progress.Info)
}

// isPostTarget mirrors the server's auto-detection: explicit post mode, or
// auto mode with a post/reel URL.
func isPostTarget(target string, mode api.Mode) bool {
	if mode == api.ModePost {
		return true
	}
	return mode == api.ModeAuto &&
		(strings.Contains(target, "/p/") || strings.Contains(target, "/reel/"))
}

// usernameFromTarget extracts a profile username from a bare handle or a
// profile URL.
func usernameFromTarget(target string) string {
	if !strings.HasPrefix(target, "http") {
		return target
	}
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			return seg
		}
	}
	return ""
}

// fail reports a hard error through the tracker and closes out the history
// record, then returns the error for the caller to surface.
func (o *Orchestrator) fail(rec *history.Record, err error) error {
	o.tracker.Message(userMessage(err), progress.Error)

	status := history.StatusFailed
	if errors.Is(err, job.ErrCancelled) || errors.Is(err, context.Canceled) {
		status = history.StatusCancelled
	}
	rec.Status = status
	rec.Error = err.Error()
	now := time.Now()
	rec.FinishedAt = &now
	o.record(func() error { return o.store.Update(rec) })

	return err
}

// finish closes out the history record for a successful invocation.
func (o *Orchestrator) finish(rec *history.Record, status history.Status, requested, archived int, name string) {
	rec.Status = status
	rec.Requested = requested
	rec.Archived = archived
	rec.ArchiveName = name
	now := time.Now()
	rec.FinishedAt = &now
	o.record(func() error { return o.store.Update(rec) })
}

// record runs a history write when a store is configured. History failures
// are logged, never fatal to a download.
func (o *Orchestrator) record(write func() error) {
	if o.store == nil {
		return
	}
	if err := write(); err != nil {
		o.log.Warn("history write failed", "error", err)
	}
}

// userMessage maps a hard failure to the single status line shown to the
// user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, job.ErrTimeout):
		return "Download timed out"
	case errors.Is(err, job.ErrCancelled), errors.Is(err, context.Canceled):
		return "Download cancelled by user"
	case errors.Is(err, ErrAllFetchesFailed):
		return "Could not download any files. This might be a CORS issue."
	default:
		return "Error: " + err.Error()
	}
}
