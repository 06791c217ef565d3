package waterfall

import (
	"sync"

	"go.uber.org/zap"
)

// StabilizationConfig controls the anti-thrash rules.
type StabilizationConfig struct {
	// CooldownCycles is how many cycles a provider sits out after a tier
	// change. Default: 3.
	CooldownCycles int `json:"cooldown_cycles" mapstructure:"cooldown_cycles"`
	// NoThrashThreshold is the minimum blended-score delta since the last
	// cycle required before a tier change is considered. Default: 0.10.
	NoThrashThreshold float64 `json:"no_thrash_threshold" mapstructure:"no_thrash_threshold"`
	// FailureLimit is the consecutive-failure streak at which a change is
	// forced through regardless of cooldown or delta. Default: 5.
	FailureLimit int `json:"failure_limit" mapstructure:"failure_limit"`
	// FreezeTopN freezes the whole cycle when any of the top-N ranked
	// providers is individually blocked from changing. Default: 3.
	FreezeTopN int `json:"freeze_top_n" mapstructure:"freeze_top_n"`
}

// DefaultStabilizationConfig returns the documented defaults.
func DefaultStabilizationConfig() StabilizationConfig {
	return StabilizationConfig{
		CooldownCycles:    3,
		NoThrashThreshold: 0.10,
		FailureLimit:      5,
		FreezeTopN:        3,
	}
}

type providerState struct {
	cooldownRemaining   int
	lastBlended         float64
	consecutiveFailures int
}

// Guard tracks per-provider cooldowns, prior scores, and failure streaks,
// and decides which providers are allowed to change tier this cycle. State
// persists for the lifetime of the engine; it is never written to external
// storage. Safe for concurrent use.
type Guard struct {
	cfg    StabilizationConfig
	mu     sync.Mutex
	states map[string]*providerState
}

// NewGuard creates a stabilization guard. Zero-valued config fields take
// the documented defaults.
func NewGuard(cfg StabilizationConfig) *Guard {
	def := DefaultStabilizationConfig()
	if cfg.CooldownCycles <= 0 {
		cfg.CooldownCycles = def.CooldownCycles
	}
	if cfg.NoThrashThreshold <= 0 {
		cfg.NoThrashThreshold = def.NoThrashThreshold
	}
	if cfg.FailureLimit <= 0 {
		cfg.FailureLimit = def.FailureLimit
	}
	if cfg.FreezeTopN <= 0 {
		cfg.FreezeTopN = def.FreezeTopN
	}
	return &Guard{cfg: cfg, states: make(map[string]*providerState)}
}

func (g *Guard) state(provider string) *providerState {
	st, ok := g.states[provider]
	if !ok {
		st = &providerState{}
		g.states[provider] = st
	}
	return st
}

// NoteOutcome feeds the failure-streak tracker. Success resets the streak;
// failure extends it.
func (g *Guard) NoteOutcome(provider string, success bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := g.state(provider)
	if success {
		st.consecutiveFailures = 0
	} else {
		st.consecutiveFailures++
	}
}

// ConsecutiveFailures returns the provider's current failure streak.
func (g *Guard) ConsecutiveFailures(provider string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.states[provider]; ok {
		return st.consecutiveFailures
	}
	return 0
}

// CooldownRemaining returns the provider's remaining cooldown cycles.
func (g *Guard) CooldownRemaining(provider string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.states[provider]; ok {
		return st.cooldownRemaining
	}
	return 0
}

// Stabilize computes the allow-change flag for each candidate. The input
// must already be ranked descending; if any of the top-N ranked providers
// is individually blocked, every provider is frozen for this cycle so the
// most important positions never reshuffle on partial information.
func (g *Guard) Stabilize(ranked []Candidate) []Candidate {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Candidate, len(ranked))
	for i, c := range ranked {
		st := g.state(c.Provider)
		c.ConsecutiveFailures = st.consecutiveFailures
		c.AllowChange = g.allow(c, st)
		out[i] = c
	}

	topN := g.cfg.FreezeTopN
	if topN > len(out) {
		topN = len(out)
	}
	for i := 0; i < topN; i++ {
		if !out[i].AllowChange {
			zap.L().Debug("waterfall: top ranks unstable, freezing cycle",
				zap.String("provider", out[i].Provider),
				zap.Int("rank", i),
			)
			for j := range out {
				out[j].AllowChange = false
			}
			break
		}
	}

	return out
}

func (g *Guard) allow(c Candidate, st *providerState) bool {
	// Safety override: a sustained failure streak must be acted on even
	// mid-cooldown.
	if st.consecutiveFailures >= g.cfg.FailureLimit {
		return true
	}
	if st.cooldownRemaining > 0 {
		return false
	}
	delta := c.Blended - st.lastBlended
	if delta < 0 {
		delta = -delta
	}
	return delta >= g.cfg.NoThrashThreshold
}

// FinishCycle records post-cycle bookkeeping: every provider's last blended
// score is updated whether or not it moved, all cooldowns decrement by one,
// and providers that changed tier this cycle restart their cooldown.
func (g *Guard) FinishCycle(scores []Score, changed []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, s := range scores {
		g.state(s.Provider).lastBlended = s.Blended
	}
	for _, st := range g.states {
		if st.cooldownRemaining > 0 {
			st.cooldownRemaining--
		}
	}
	for _, name := range changed {
		g.state(name).cooldownRemaining = g.cfg.CooldownCycles
	}
}

// Reset clears all stabilization state. Test isolation only.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.states = make(map[string]*providerState)
}
