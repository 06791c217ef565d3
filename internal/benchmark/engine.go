package benchmark

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/provider-bench/internal/registry"
	"github.com/sells-group/provider-bench/internal/waterfall"
)

// Scorer is the capability interface over scorecard computation. The engine
// degrades to default-plan behavior when its scorer reports no data, so an
// absent scoring subsystem is modeled as NoopScorer rather than a runtime
// error.
type Scorer interface {
	Compute(snapshot map[string]MetricEntry) []ProviderScore
}

// NoopScorer always reports insufficient data. Engines built with it serve
// the static default plan from every query.
type NoopScorer struct{}

// Compute implements Scorer.
func (NoopScorer) Compute(map[string]MetricEntry) []ProviderScore { return nil }

// Options configures an Engine. Zero values take documented defaults.
type Options struct {
	Scorecard ScorecardConfig  `json:"scorecard" mapstructure:"scorecard"`
	Waterfall waterfall.Config `json:"waterfall" mapstructure:"waterfall"`

	// HistoryLimit bounds the in-memory plan history. Default: 50.
	HistoryLimit int `json:"history_limit" mapstructure:"history_limit"`

	// Scorer overrides the scorecard, e.g. with NoopScorer when the scoring
	// subsystem is unavailable. Nil means the real scorecard.
	Scorer Scorer `json:"-" mapstructure:"-"`
}

// DefaultHistoryLimit bounds the optimization history kept in memory.
const DefaultHistoryLimit = 50

// Engine is the orchestrating façade: it owns the metrics store and
// scorecard, exposes the recording API, runs optimization cycles, and keeps
// a bounded history of past plans. Safe for concurrent use; Optimize calls
// are serialized.
type Engine struct {
	reg     *registry.Registry
	metrics *MetricsStore
	scorer  Scorer
	batch   *BatchLatencyTracker
	opt     *waterfall.Optimizer

	historyLimit int

	cached  atomic.Pointer[[]ProviderScore]
	group   singleflight.Group
	mu      sync.Mutex
	history []*waterfall.Plan
}

// NewEngine builds an engine over the static registry.
func NewEngine(reg *registry.Registry, opts Options) *Engine {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	scorer := opts.Scorer
	if scorer == nil {
		scorer = NewScorecard(opts.Scorecard, reg)
	}
	return &Engine{
		reg:          reg,
		metrics:      NewMetricsStore(),
		scorer:       scorer,
		batch:        NewBatchLatencyTracker(),
		opt:          waterfall.NewOptimizer(opts.Waterfall, reg),
		historyLimit: opts.HistoryLimit,
	}
}

// Registry returns the engine's static provider registry.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// Metrics returns the engine's metrics store for direct recording.
func (e *Engine) Metrics() *MetricsStore { return e.metrics }

// Batch returns the engine's batch latency tracker.
func (e *Engine) Batch() *BatchLatencyTracker { return e.batch }

// RecordCall counts one call to the provider at its static per-call cost.
func (e *Engine) RecordCall(provider string) {
	e.metrics.RecordCall(provider, e.reg.CostOf(provider))
}

// RecordCallCost counts one call at an explicit cost, for callers whose
// pricing varies per request.
func (e *Engine) RecordCallCost(provider string, costUSD float64) {
	e.metrics.RecordCall(provider, costUSD)
}

// RecordResult records a call outcome. A result, found or not, counts as a
// completed call for the failure-streak tracker.
func (e *Engine) RecordResult(provider string, patternFound, verified bool, latencyMs, costUSD float64) {
	e.metrics.RecordResult(provider, patternFound, verified, latencyMs, costUSD)
	e.opt.Guard().NoteOutcome(provider, true)
}

// RecordError records a failed call. Kind "timeout" counts separately from
// generic errors; both extend the provider's failure streak.
func (e *Engine) RecordError(provider, kind string) {
	e.metrics.RecordError(provider, kind)
	e.opt.Guard().NoteOutcome(provider, false)
}

// Observe times fn against the provider and records the outcome: a call at
// static cost, plus either a result with the measured latency or an error.
func (e *Engine) Observe(provider string, fn func() error) error {
	e.RecordCall(provider)
	scope := e.batch.Start(provider)
	err := fn()
	scope.Stop(err)
	if err != nil {
		e.RecordError(provider, "error")
		return err
	}
	e.metrics.RecordResult(provider, false, false, scope.LatencyMs(), 0)
	e.opt.Guard().NoteOutcome(provider, true)
	return nil
}

// Scores returns the provider scorecard. Without recalculate it serves the
// snapshot cached by the last Optimize or recalculation, lock-free.
// Concurrent recalculations are deduplicated.
func (e *Engine) Scores(recalculate bool) []ProviderScore {
	if !recalculate {
		if cached := e.cached.Load(); cached != nil {
			return *cached
		}
	}
	v, _, _ := e.group.Do("scores", func() (any, error) {
		scores := e.scorer.Compute(e.metrics.Snapshot())
		e.cached.Store(&scores)
		return scores, nil
	})
	return v.([]ProviderScore)
}

// Recommendations returns the scores whose recommendation is anything other
// than keep.
func (e *Engine) Recommendations() []ProviderScore {
	var out []ProviderScore
	for _, s := range e.Scores(false) {
		if s.Recommendation != RecommendKeep {
			out = append(out, s)
		}
	}
	return out
}

// TopPerformers returns the n best providers by blended score.
func (e *Engine) TopPerformers(n int) []ProviderScore {
	scores := e.Scores(false)
	if n > len(scores) {
		n = len(scores)
	}
	if n < 0 {
		n = 0
	}
	return scores[:n]
}

// Underperformers returns providers whose blended score is below threshold.
func (e *Engine) Underperformers(threshold float64) []ProviderScore {
	var out []ProviderScore
	for _, s := range e.Scores(false) {
		if s.Blended < threshold {
			out = append(out, s)
		}
	}
	return out
}

// Optimize runs one optimization cycle and returns the resulting immutable
// plan. With no recorded metrics, or a scorer that reports no data, it
// returns the default statically-tiered plan, a defined fallback rather
// than an error.
func (e *Engine) Optimize() *waterfall.Plan {
	scores := e.scorer.Compute(e.metrics.Snapshot())
	e.cached.Store(&scores)

	inputs := make([]waterfall.Score, len(scores))
	for i, s := range scores {
		inputs[i] = waterfall.Score{
			Provider:       s.Provider,
			Quality:        s.Quality,
			CostEfficiency: s.CostEfficiency,
			Latency:        s.Latency,
			Reliability:    s.Reliability,
			Blended:        s.Blended,
			CallsMade:      s.CallsMade,
			CurrentTier:    s.CurrentTier,
		}
	}

	plan := e.opt.Run(inputs)

	e.mu.Lock()
	e.history = append(e.history, plan)
	if len(e.history) > e.historyLimit {
		e.history = e.history[len(e.history)-e.historyLimit:]
	}
	e.mu.Unlock()

	return plan
}

// LastPlan returns the most recent plan, or the default plan if no cycle
// has run yet.
func (e *Engine) LastPlan() *waterfall.Plan {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.history) > 0 {
		return e.history[len(e.history)-1]
	}
	return waterfall.DefaultPlan(e.reg, 0)
}

// WaterfallProfiles returns the four orderings from the most recent plan.
func (e *Engine) WaterfallProfiles() waterfall.Profiles {
	p := e.LastPlan()
	return waterfall.Profiles{
		Global:     p.Global,
		Company:    p.Company,
		People:     p.People,
		TalentFlow: p.TalentFlow,
	}
}

// CurrentOrder flattens the most recent global layout into the waterfall
// call order.
func (e *Engine) CurrentOrder() []string {
	return waterfall.Order(e.LastPlan().Global)
}

// History returns a copy of the retained plan history, oldest first.
func (e *Engine) History() []*waterfall.Plan {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*waterfall.Plan, len(e.history))
	copy(out, e.history)
	return out
}

// Reset clears metrics, stabilization state, cached scores, batch stats,
// and plan history. Test isolation.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.history = nil
	e.mu.Unlock()
	e.cached.Store(nil)
	e.metrics.ResetAll()
	e.batch.Reset()
	e.opt.Reset()
	zap.L().Debug("benchmark: engine reset")
}

var (
	sharedMu sync.Mutex
	shared   *Engine
)

// Shared returns the process-wide engine, creating it on first call with
// the given registry and options. Later calls return the same handle and
// ignore their arguments. Prefer explicit injection of a NewEngine result;
// Shared exists for callers that genuinely need one instance across
// independent pipeline phases.
func Shared(reg *registry.Registry, opts Options) *Engine {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		shared = NewEngine(reg, opts)
	}
	return shared
}

// ResetShared drops the process-wide engine. Test isolation.
func ResetShared() {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	shared = nil
}
