package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordSink captures everything it receives.
type recordSink struct {
	percents []float64
	messages []string
	sevs     []Severity
}

func (r *recordSink) Progress(percent float64) {
	r.percents = append(r.percents, percent)
}

func (r *recordSink) Message(text string, severity Severity) {
	r.messages = append(r.messages, text)
	r.sevs = append(r.sevs, severity)
}

func TestTracker_CompositeSplit(t *testing.T) {
	tr := NewTracker()

	tr.SetPhaseFraction(PhaseServer, 0)
	assert.Equal(t, 0.0, tr.Percent())

	tr.SetPhaseFraction(PhaseServer, 0.5)
	assert.Equal(t, 25.0, tr.Percent())

	tr.SetPhaseFraction(PhaseServer, 1)
	assert.Equal(t, 50.0, tr.Percent())

	tr.SetPhaseFraction(PhaseClient, 0.5)
	assert.Equal(t, 75.0, tr.Percent())

	tr.SetPhaseFraction(PhaseClient, 1)
	assert.Equal(t, 100.0, tr.Percent())
}

func TestTracker_Monotonic(t *testing.T) {
	tr := NewTracker()

	tr.SetPhaseFraction(PhaseClient, 0.8) // 90
	tr.SetPhaseFraction(PhaseServer, 1)   // would be 50; ignored
	assert.Equal(t, 90.0, tr.Percent())

	tr.SetPhaseFraction(PhaseClient, 0.5) // would be 75; ignored
	assert.Equal(t, 90.0, tr.Percent())
}

func TestTracker_ClampsFraction(t *testing.T) {
	tr := NewTracker()

	tr.SetPhaseFraction(PhaseServer, -3)
	assert.Equal(t, 0.0, tr.Percent())

	tr.SetPhaseFraction(PhaseClient, 7)
	assert.Equal(t, 100.0, tr.Percent())
}

func TestTracker_SinkFanOut(t *testing.T) {
	a := &recordSink{}
	b := &recordSink{}
	tr := NewTracker(a, b)

	tr.SetPhaseFraction(PhaseServer, 0.5)
	tr.Message("Found 3 files.", Info)
	tr.Message("Could not download any files.", Error)

	for _, s := range []*recordSink{a, b} {
		assert.Equal(t, []float64{25}, s.percents)
		assert.Equal(t, []string{"Found 3 files.", "Could not download any files."}, s.messages)
		assert.Equal(t, []Severity{Info, Error}, s.sevs)
	}
}

func TestTracker_ResetDropsFloor(t *testing.T) {
	s := &recordSink{}
	tr := NewTracker(s)

	tr.SetPhaseFraction(PhaseClient, 1)
	assert.Equal(t, 100.0, tr.Percent())

	tr.Reset()
	assert.Equal(t, 0.0, tr.Percent())
	// Reset itself is silent; the next update reports again.
	assert.Equal(t, []float64{100}, s.percents)

	tr.SetPhaseFraction(PhaseServer, 0.5)
	assert.Equal(t, 25.0, tr.Percent())
	assert.Equal(t, []float64{100, 25}, s.percents)
}

func TestTracker_IgnoredUpdateDoesNotNotify(t *testing.T) {
	s := &recordSink{}
	tr := NewTracker(s)

	tr.SetPhaseFraction(PhaseClient, 1)
	tr.SetPhaseFraction(PhaseServer, 0.2)
	assert.Equal(t, []float64{100}, s.percents)
}
