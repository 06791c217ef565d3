package benchmark

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock steps a fake clock by a fixed amount per call.
type fixedClock struct {
	now  time.Time
	step time.Duration
}

func (c *fixedClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func TestLatencyScope_MeasuresDuration(t *testing.T) {
	clock := &fixedClock{now: time.Unix(0, 0), step: 250 * time.Millisecond}

	scope := StartScope("hunter")
	scope.nowFunc = clock.Now
	scope.started = clock.Now()
	scope.Stop(nil)

	assert.InDelta(t, 250, scope.LatencyMs(), 1e-9)
	assert.True(t, scope.Success())
	assert.NoError(t, scope.Err())
}

func TestLatencyScope_StopOnlyOnce(t *testing.T) {
	scope := StartScope("hunter")
	scope.Stop(nil)
	first := scope.LatencyMs()

	scope.Stop(eris.New("late failure"))
	assert.Equal(t, first, scope.LatencyMs())
	assert.True(t, scope.Success())
}

func TestLatencyScope_FailureCapturesError(t *testing.T) {
	scope := StartScope("zoominfo")
	scope.Stop(eris.New("quota exceeded"))

	assert.False(t, scope.Success())
	assert.Error(t, scope.Err())
}

func TestObserve_Success(t *testing.T) {
	scope, err := Observe("hunter", func() error { return nil })
	require.NoError(t, err)
	assert.True(t, scope.Success())
}

func TestObserve_Error(t *testing.T) {
	scope, err := Observe("hunter", func() error { return eris.New("boom") })
	assert.Error(t, err)
	assert.False(t, scope.Success())
}

func TestObserve_PanicStopsScope(t *testing.T) {
	tracker := NewBatchLatencyTracker()

	assert.Panics(t, func() {
		scope := tracker.Start("hunter")
		defer func() {
			if r := recover(); r != nil {
				scope.Stop(eris.New("panicked"))
				panic(r)
			}
		}()
		panic("kaboom")
	})

	summary := tracker.Summary()
	require.Contains(t, summary, "hunter")
	assert.Equal(t, 1, summary["hunter"].Failures)
}

func TestBatchLatencyTracker_Summary(t *testing.T) {
	tracker := NewBatchLatencyTracker()

	add := func(provider string, ms float64, err error) {
		scope := tracker.Start(provider)
		scope.nowFunc = func() time.Time { return scope.started.Add(time.Duration(ms * float64(time.Millisecond))) }
		scope.Stop(err)
	}

	add("hunter", 100, nil)
	add("hunter", 300, nil)
	add("hunter", 200, eris.New("fail"))
	add("apollo", 50, nil)

	summary := tracker.Summary()

	h := summary["hunter"]
	assert.Equal(t, 3, h.Count)
	assert.Equal(t, 2, h.Successes)
	assert.Equal(t, 1, h.Failures)
	assert.InDelta(t, 100, h.MinMs, 1e-9)
	assert.InDelta(t, 300, h.MaxMs, 1e-9)
	assert.InDelta(t, 200, h.AvgMs, 1e-9)

	a := summary["apollo"]
	assert.Equal(t, 1, a.Count)
	assert.InDelta(t, 50, a.AvgMs, 1e-9)

	assert.Equal(t, []string{"apollo", "hunter"}, tracker.Providers())
}

func TestBatchLatencyTracker_Reset(t *testing.T) {
	tracker := NewBatchLatencyTracker()
	scope := tracker.Start("hunter")
	scope.Stop(nil)

	tracker.Reset()
	assert.Empty(t, tracker.Summary())
}
