// Package progress maps two-phase download progress onto a single composite
// percentage and fans status text out to presentation sinks.
package progress

import (
	"log/slog"
	"sync"
)

// Phase is one of the two stages of a download invocation.
type Phase int

const (
	// PhaseServer covers server-side job completion. It owns the first half
	// of the composite percentage.
	PhaseServer Phase = iota
	// PhaseClient covers client-side fetch and pack. It owns the second half.
	PhaseClient
)

// Severity selects presentation styling for a status message.
type Severity int

const (
	Info Severity = iota
	Error
)

// Sink receives progress and status updates. Implementations render them;
// the tracker owns the numbers.
type Sink interface {
	Progress(percent float64)
	Message(text string, severity Severity)
}

// Tracker converts phase-local fractions into one 0-100 composite value.
// Each phase owns a fixed half of the range; the composite never decreases
// between Resets.
type Tracker struct {
	mu      sync.Mutex
	sinks   []Sink
	percent float64
}

// NewTracker creates a tracker reporting to the given sinks.
func NewTracker(sinks ...Sink) *Tracker {
	return &Tracker{sinks: sinks}
}

// SetPhaseFraction records progress within a phase. fraction is clamped to
// [0,1]; an update that would move the composite backwards is ignored.
func (t *Tracker) SetPhaseFraction(phase Phase, fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	composite := fraction * 50
	if phase == PhaseClient {
		composite = 50 + fraction*50
	}

	t.mu.Lock()
	if composite < t.percent {
		t.mu.Unlock()
		return
	}
	t.percent = composite
	sinks := t.sinks
	t.mu.Unlock()

	for _, s := range sinks {
		s.Progress(composite)
	}
}

// Reset drops the monotonic floor back to zero so a new invocation can reuse
// the tracker. Sinks are not notified; the next SetPhaseFraction is.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.percent = 0
	t.mu.Unlock()
}

// Percent returns the current composite percentage in [0,100].
func (t *Tracker) Percent() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percent
}

// Message forwards user-facing status text to every sink.
func (t *Tracker) Message(text string, severity Severity) {
	t.mu.Lock()
	sinks := t.sinks
	t.mu.Unlock()

	for _, s := range sinks {
		s.Message(text, severity)
	}
}

// LogSink renders progress updates to a structured logger.
type LogSink struct {
	log *slog.Logger
}

// NewLogSink creates a sink that writes to log.
func NewLogSink(log *slog.Logger) *LogSink {
	if log == nil {
		log = slog.Default()
	}
	return &LogSink{log: log.With("component", "progress")}
}

func (s *LogSink) Progress(percent float64) {
	s.log.Debug("progress", "percent", int(percent))
}

func (s *LogSink) Message(text string, severity Severity) {
	if severity == Error {
		s.log.Error(text)
		return
	}
	s.log.Info(text)
}
