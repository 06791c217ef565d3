package benchmark

import (
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// LatencyScope measures one provider operation. Start it, do the work, then
// Stop it with the outcome. Safe to Stop more than once; only the first
// Stop takes effect.
type LatencyScope struct {
	Provider string

	started time.Time
	stopped bool

	latencyMs float64
	success   bool
	err       error

	nowFunc func() time.Time
	onStop  func(*LatencyScope)
}

// StartScope begins timing an operation against the named provider.
func StartScope(provider string) *LatencyScope {
	s := &LatencyScope{Provider: provider, nowFunc: time.Now}
	s.started = s.nowFunc()
	return s
}

// Stop ends the measurement. A nil err marks the operation successful.
func (s *LatencyScope) Stop(err error) {
	if s.stopped {
		return
	}
	s.stopped = true
	s.latencyMs = float64(s.nowFunc().Sub(s.started)) / float64(time.Millisecond)
	s.err = err
	s.success = err == nil
	if s.onStop != nil {
		s.onStop(s)
	}
}

// LatencyMs returns the measured duration in milliseconds. Zero until Stop.
func (s *LatencyScope) LatencyMs() float64 { return s.latencyMs }

// Success reports whether the operation completed without error.
func (s *LatencyScope) Success() bool { return s.success }

// Err returns the error passed to Stop, if any.
func (s *LatencyScope) Err() error { return s.err }

// Observe times fn against the provider, guaranteeing the scope is stopped
// even if fn panics (the panic is recorded as a failure and re-raised).
// The finished scope is returned alongside fn's error.
func Observe(provider string, fn func() error) (*LatencyScope, error) {
	scope := StartScope(provider)
	var err error
	defer func() {
		if r := recover(); r != nil {
			scope.Stop(errPanic)
			panic(r)
		}
		scope.Stop(err)
	}()
	err = fn()
	return scope, err
}

var errPanic = eris.New("panic during observed operation")

// LatencyStats aggregates scoped measurements for one provider.
type LatencyStats struct {
	Count     int     `json:"count"`
	Successes int     `json:"successes"`
	Failures  int     `json:"failures"`
	MinMs     float64 `json:"min_ms"`
	MaxMs     float64 `json:"max_ms"`
	AvgMs     float64 `json:"avg_ms"`

	totalMs float64
}

// BatchLatencyTracker groups many scoped measurements into a per-provider
// summary. Purely read-side aggregation, independent of MetricsStore.
// Safe for concurrent use.
type BatchLatencyTracker struct {
	mu    sync.Mutex
	stats map[string]*LatencyStats
}

// NewBatchLatencyTracker creates an empty tracker.
func NewBatchLatencyTracker() *BatchLatencyTracker {
	return &BatchLatencyTracker{stats: make(map[string]*LatencyStats)}
}

// Start begins a scope whose Stop feeds this tracker.
func (b *BatchLatencyTracker) Start(provider string) *LatencyScope {
	scope := StartScope(provider)
	scope.onStop = b.add
	return scope
}

// Add records an already-finished scope into the batch.
func (b *BatchLatencyTracker) Add(scope *LatencyScope) {
	if !scope.stopped {
		return
	}
	b.add(scope)
}

func (b *BatchLatencyTracker) add(scope *LatencyScope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.stats[scope.Provider]
	if !ok {
		st = &LatencyStats{MinMs: scope.latencyMs, MaxMs: scope.latencyMs}
		b.stats[scope.Provider] = st
	}
	st.Count++
	if scope.success {
		st.Successes++
	} else {
		st.Failures++
	}
	if scope.latencyMs < st.MinMs {
		st.MinMs = scope.latencyMs
	}
	if scope.latencyMs > st.MaxMs {
		st.MaxMs = scope.latencyMs
	}
	st.totalMs += scope.latencyMs
	st.AvgMs = st.totalMs / float64(st.Count)
}

// Summary returns per-provider stats, keyed by provider name.
func (b *BatchLatencyTracker) Summary() map[string]LatencyStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]LatencyStats, len(b.stats))
	for name, st := range b.stats {
		out[name] = *st
	}
	return out
}

// Providers returns the tracked provider names, sorted.
func (b *BatchLatencyTracker) Providers() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.stats))
	for n := range b.stats {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Reset clears all accumulated stats.
func (b *BatchLatencyTracker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats = make(map[string]*LatencyStats)
}
