package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmunix/igrab/internal/api"
)

// statusFunc adapts a function to the StatusClient interface.
type statusFunc func(ctx context.Context, jobID string) (*api.JobStatus, error)

func (f statusFunc) Status(ctx context.Context, jobID string) (*api.JobStatus, error) {
	return f(ctx, jobID)
}

// sequenceClient returns canned statuses in order, then repeats the last one.
func sequenceClient(calls *atomic.Int32, statuses ...*api.JobStatus) StatusClient {
	return statusFunc(func(ctx context.Context, jobID string) (*api.JobStatus, error) {
		n := int(calls.Add(1))
		if n > len(statuses) {
			n = len(statuses)
		}
		return statuses[n-1], nil
	})
}

func TestPoller_CompletesAtNthTick(t *testing.T) {
	var calls atomic.Int32
	client := sequenceClient(&calls,
		&api.JobStatus{Status: api.StatePending},
		&api.JobStatus{Status: api.StateRunning},
		&api.JobStatus{Status: api.StateCompleted, Result: &api.JobResult{
			MediaURLs: []string{"https://cdn.example.com/a.jpg"},
		}},
	)

	p := New(client, WithInterval(time.Millisecond), WithMaxAttempts(120))
	result, err := p.Poll(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, result.MediaURLs)

	// No ticks after the terminal state.
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPoller_JobFailedWithReason(t *testing.T) {
	var calls atomic.Int32
	client := sequenceClient(&calls,
		&api.JobStatus{Status: api.StateFailed, Result: &api.JobResult{Error: "profile is private"}},
	)

	p := New(client, WithInterval(time.Millisecond))
	_, err := p.Poll(context.Background(), "job-1")
	require.ErrorIs(t, err, ErrJobFailed)
	assert.Contains(t, err.Error(), "profile is private")
}

func TestPoller_JobFailedWithoutReason(t *testing.T) {
	var calls atomic.Int32
	client := sequenceClient(&calls, &api.JobStatus{Status: api.StateFailed})

	p := New(client, WithInterval(time.Millisecond))
	_, err := p.Poll(context.Background(), "job-1")
	require.ErrorIs(t, err, ErrJobFailed)
	assert.Contains(t, err.Error(), "Unknown error")
}

func TestPoller_CompletedWithResultError(t *testing.T) {
	var calls atomic.Int32
	client := sequenceClient(&calls,
		&api.JobStatus{Status: api.StateCompleted, Result: &api.JobResult{Error: "login required"}},
	)

	p := New(client, WithInterval(time.Millisecond))
	_, err := p.Poll(context.Background(), "job-1")
	require.ErrorIs(t, err, ErrJobFailed)
	assert.Contains(t, err.Error(), "login required")
}

func TestPoller_Timeout(t *testing.T) {
	var calls atomic.Int32
	client := sequenceClient(&calls, &api.JobStatus{Status: api.StateRunning})

	p := New(client, WithInterval(time.Millisecond), WithMaxAttempts(5))
	_, err := p.Poll(context.Background(), "job-1")
	require.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrJobFailed)
	assert.Equal(t, int32(5), calls.Load())

	// Cancel after natural termination is a no-op, not a panic or error.
	p.Cancel()
	p.Cancel()
}

func TestPoller_TransportErrorIsFatal(t *testing.T) {
	var calls atomic.Int32
	client := statusFunc(func(ctx context.Context, jobID string) (*api.JobStatus, error) {
		calls.Add(1)
		return nil, api.ErrUnavailable
	})

	p := New(client, WithInterval(time.Millisecond), WithMaxAttempts(50))
	_, err := p.Poll(context.Background(), "job-1")
	require.ErrorIs(t, err, api.ErrUnavailable)

	// First failure ends the loop; no retry ticks.
	assert.Equal(t, int32(1), calls.Load())
}

func TestPoller_CancelMidPoll(t *testing.T) {
	var calls atomic.Int32
	client := sequenceClient(&calls, &api.JobStatus{Status: api.StateRunning})

	p := New(client, WithInterval(time.Millisecond), WithMaxAttempts(1000))

	done := make(chan error, 1)
	go func() {
		_, err := p.Poll(context.Background(), "job-1")
		done <- err
	}()

	// Let a few ticks happen, then sever the loop.
	time.Sleep(10 * time.Millisecond)
	p.Cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("poll did not stop after cancel")
	}

	// No status requests arrive after cancellation.
	observed := calls.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, observed, calls.Load())
}

func TestPoller_TickCallback(t *testing.T) {
	var calls atomic.Int32
	client := sequenceClient(&calls,
		&api.JobStatus{Status: api.StateRunning, Progress: "Resolving media..."},
		&api.JobStatus{Status: api.StateCompleted, Result: &api.JobResult{}},
	)

	type tick struct {
		attempt, max int
		progress     string
	}
	var ticks []tick
	p := New(client,
		WithInterval(time.Millisecond),
		WithMaxAttempts(10),
		WithTickFunc(func(attempt, max int, status *api.JobStatus) {
			ticks = append(ticks, tick{attempt, max, status.Progress})
		}),
	)

	_, err := p.Poll(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, ticks, 2)
	assert.Equal(t, tick{1, 10, "Resolving media..."}, ticks[0])
	assert.Equal(t, 2, ticks[1].attempt)
}

func TestPoller_ContextCancellation(t *testing.T) {
	client := statusFunc(func(ctx context.Context, jobID string) (*api.JobStatus, error) {
		return &api.JobStatus{Status: api.StateRunning}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(client, WithInterval(time.Millisecond))
	_, err := p.Poll(ctx, "job-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCancelled))
}
