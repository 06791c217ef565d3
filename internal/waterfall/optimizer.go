package waterfall

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/provider-bench/internal/registry"
)

// Config bundles every waterfall-level knob.
type Config struct {
	Stabilization StabilizationConfig `json:"stabilization" mapstructure:"stabilization"`
	Assigner      AssignerConfig      `json:"assigner" mapstructure:"assigner"`
	RankWeights   RankWeights         `json:"rank_weights" mapstructure:"rank_weights"`
	TalentFlow    TalentFlowWeights   `json:"talent_flow_weights" mapstructure:"talent_flow_weights"`
}

// DefaultConfig returns the documented defaults for all knobs.
func DefaultConfig() Config {
	return Config{
		Stabilization: DefaultStabilizationConfig(),
		Assigner:      DefaultAssignerConfig(),
		RankWeights:   DefaultRankWeights(),
		TalentFlow:    DefaultTalentFlowWeights(),
	}
}

// Optimizer runs the full cycle: rank, stabilize, assign, build profiles.
// One Optimizer owns the stabilization state; cycles are serialized.
type Optimizer struct {
	mu sync.Mutex

	reg      *registry.Registry
	guard    *Guard
	assigner *Assigner
	builder  *ProfileBuilder
	weights  RankWeights

	cycle int
}

// NewOptimizer creates an optimizer over the static registry.
func NewOptimizer(cfg Config, reg *registry.Registry) *Optimizer {
	return &Optimizer{
		reg:      reg,
		guard:    NewGuard(cfg.Stabilization),
		assigner: NewAssigner(cfg.Assigner, reg),
		builder:  NewProfileBuilder(cfg.TalentFlow),
		weights:  cfg.RankWeights.Normalized(),
	}
}

// Guard exposes the stabilization guard so callers can feed it outcome
// streaks as results arrive.
func (o *Optimizer) Guard() *Guard { return o.guard }

// Cycle returns the number of completed optimization cycles.
func (o *Optimizer) Cycle() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cycle
}

// Run executes one optimization cycle over fresh scorecard output and
// returns the resulting plan. With no scores at all it returns the default
// plan without touching stabilization state. Two concurrent Runs never
// interleave: the whole cycle is a single critical section over the
// cooldown/last-score state.
func (o *Optimizer) Run(scores []Score) *Plan {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.cycle++

	if len(scores) == 0 {
		zap.L().Info("waterfall: no live scores, using default plan", zap.Int("cycle", o.cycle))
		return DefaultPlan(o.reg, o.cycle)
	}

	ranked := make([]Candidate, len(scores))
	for i, s := range scores {
		ranked[i] = Candidate{Score: s, RankScore: o.weights.Rank(s)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].RankScore != ranked[j].RankScore {
			return ranked[i].RankScore > ranked[j].RankScore
		}
		return ranked[i].Provider < ranked[j].Provider
	})

	stabilized := o.guard.Stabilize(ranked)
	asn := o.assigner.Assign(stabilized)
	o.guard.FinishCycle(scores, asn.Changed())

	profiles := o.builder.Build(asn.Tiers, scores)
	meta := PlanMetadata{Cycle: o.cycle, ProvidersAnalyzed: len(scores), LiveData: true}
	plan := NewPlan(asn, profiles, meta)

	zap.L().Info("waterfall: optimization cycle complete",
		zap.Int("cycle", o.cycle),
		zap.Int("providers", len(scores)),
		zap.Strings("promoted", plan.Promoted),
		zap.Strings("demoted", plan.Demoted),
		zap.Strings("removed", plan.Removed),
	)

	return plan
}

// Reset clears cycle count and stabilization state. Test isolation only.
func (o *Optimizer) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cycle = 0
	o.guard.Reset()
}
