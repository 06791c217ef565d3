// Package waterfall decides which tier each provider occupies in the lookup
// waterfall. It consumes scorecard output, stabilizes it against thrashing,
// reassigns tiers under whitelist and step-size constraints, and derives the
// consumer-specific orderings.
package waterfall

import (
	"github.com/sells-group/provider-bench/internal/registry"
)

// Score is the per-provider input to one optimization cycle: the scorecard's
// component and blended scores plus the raw figures the assigner gates on.
type Score struct {
	Provider       string  `json:"provider"`
	Quality        float64 `json:"quality"`
	CostEfficiency float64 `json:"cost_efficiency"`
	Latency        float64 `json:"latency"`
	Reliability    float64 `json:"reliability"`
	Blended        float64 `json:"blended"`

	CallsMade   int           `json:"calls_made"`
	CurrentTier registry.Tier `json:"current_tier"`
}

// RankWeights is the blend used to order providers before stabilization and
// assignment. Distinct from the scorecard's recommendation blend: ranking is
// quality-dominant to a stronger degree (the "ROI" ordering). Both weight
// sets are deliberately kept separate and separately configurable.
type RankWeights struct {
	Quality        float64 `json:"quality" mapstructure:"quality"`
	CostEfficiency float64 `json:"cost_efficiency" mapstructure:"cost_efficiency"`
	Latency        float64 `json:"latency" mapstructure:"latency"`
	Reliability    float64 `json:"reliability" mapstructure:"reliability"`
}

// DefaultRankWeights returns the waterfall-level ROI ordering weights.
func DefaultRankWeights() RankWeights {
	return RankWeights{Quality: 0.6, CostEfficiency: 0.2, Latency: 0.1, Reliability: 0.1}
}

// Normalized returns the weights scaled to sum to 1.0, falling back to the
// defaults when the total is not positive.
func (w RankWeights) Normalized() RankWeights {
	sum := w.Quality + w.CostEfficiency + w.Latency + w.Reliability
	if sum <= 0 {
		return DefaultRankWeights()
	}
	return RankWeights{
		Quality:        w.Quality / sum,
		CostEfficiency: w.CostEfficiency / sum,
		Latency:        w.Latency / sum,
		Reliability:    w.Reliability / sum,
	}
}

// Rank applies the weights to a score's components.
func (w RankWeights) Rank(s Score) float64 {
	return w.Quality*s.Quality + w.CostEfficiency*s.CostEfficiency + w.Latency*s.Latency + w.Reliability*s.Reliability
}

// Candidate is a Score augmented with this cycle's stabilization verdict.
type Candidate struct {
	Score
	RankScore           float64 `json:"rank_score"`
	AllowChange         bool    `json:"allow_change"`
	ConsecutiveFailures int     `json:"consecutive_failures"`
}
