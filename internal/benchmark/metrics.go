// Package benchmark tracks per-provider call performance and computes the
// scorecards that drive waterfall tier optimization.
package benchmark

import (
	"sync"
)

// maxLatencySamples caps the per-provider latency sample list. On overflow
// the oldest samples are dropped.
const maxLatencySamples = 1000

// MetricEntry accumulates raw counters for one provider. Owned exclusively
// by MetricsStore; mutated only through its recording API.
type MetricEntry struct {
	CallsMade      int       `json:"calls_made"`
	PatternsFound  int       `json:"patterns_found"`
	VerifiedHits   int       `json:"verified_hits"`
	FalsePositives int       `json:"false_positives"`
	Errors         int       `json:"errors"`
	Timeouts       int       `json:"timeouts"`
	LatenciesMs    []float64 `json:"latencies_ms"`
	CostUSD        float64   `json:"cost_usd"`
}

// clone deep-copies the entry so snapshots never alias live state.
func (e *MetricEntry) clone() MetricEntry {
	c := *e
	c.LatenciesMs = make([]float64, len(e.LatenciesMs))
	copy(c.LatenciesMs, e.LatenciesMs)
	return c
}

// MeanLatencyMs returns the average of recorded latency samples, 0 if none.
func (e *MetricEntry) MeanLatencyMs() float64 {
	if len(e.LatenciesMs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range e.LatenciesMs {
		sum += v
	}
	return sum / float64(len(e.LatenciesMs))
}

// MetricsStore is the write-side bookkeeping for provider performance.
// Recording is unconditional: entries are created implicitly on first
// reference and nothing is ever validated against business rules, because
// metrics recording must never fail a calling pipeline phase. Safe for
// concurrent use.
type MetricsStore struct {
	mu      sync.Mutex
	entries map[string]*MetricEntry
}

// NewMetricsStore creates an empty metrics store.
func NewMetricsStore() *MetricsStore {
	return &MetricsStore{entries: make(map[string]*MetricEntry)}
}

func (s *MetricsStore) entry(provider string) *MetricEntry {
	e, ok := s.entries[provider]
	if !ok {
		e = &MetricEntry{}
		s.entries[provider] = e
	}
	return e
}

// RecordCall counts one call made to the provider and its cost.
func (s *MetricsStore) RecordCall(provider string, costUSD float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(provider)
	e.CallsMade++
	e.CostUSD += costUSD
}

// RecordResult records the outcome of a call. It does not imply a call;
// pair it with RecordCall to count both. Latencies <= 0 mean "no
// measurement" and are not added to the sample list.
func (s *MetricsStore) RecordResult(provider string, patternFound, verified bool, latencyMs, costUSD float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(provider)
	if patternFound {
		e.PatternsFound++
		if verified {
			e.VerifiedHits++
		} else {
			e.FalsePositives++
		}
	}
	if latencyMs > 0 {
		e.LatenciesMs = append(e.LatenciesMs, latencyMs)
		if len(e.LatenciesMs) > maxLatencySamples {
			e.LatenciesMs = e.LatenciesMs[len(e.LatenciesMs)-maxLatencySamples:]
		}
	}
	e.CostUSD += costUSD
}

// RecordError counts a failed call. Kind "timeout" increments the timeout
// counter; anything else counts as a generic error.
func (s *MetricsStore) RecordError(provider, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(provider)
	if kind == "timeout" {
		e.Timeouts++
	} else {
		e.Errors++
	}
}

// Reset clears the counters for a single provider.
func (s *MetricsStore) Reset(provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, provider)
}

// ResetAll clears every provider's counters.
func (s *MetricsStore) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*MetricEntry)
}

// Snapshot returns a deep copy of all entries, keyed by provider.
func (s *MetricsStore) Snapshot() map[string]MetricEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]MetricEntry, len(s.entries))
	for name, e := range s.entries {
		out[name] = e.clone()
	}
	return out
}

// Empty reports whether nothing has been recorded yet.
func (s *MetricsStore) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries) == 0
}
