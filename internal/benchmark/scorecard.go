package benchmark

import (
	"math"
	"sort"

	"github.com/sells-group/provider-bench/internal/registry"
)

// Recommendation is the scorecard's verdict on a provider's tier placement.
type Recommendation string

const (
	RecommendKeep    Recommendation = "keep"
	RecommendPromote Recommendation = "promote"
	RecommendDemote  Recommendation = "demote"
	RecommendRemove  Recommendation = "remove"
)

// ScoreWeights blends the four component scores into one figure. Weights
// are re-normalized to sum to 1.0 at construction.
type ScoreWeights struct {
	Quality        float64 `json:"quality" mapstructure:"quality"`
	CostEfficiency float64 `json:"cost_efficiency" mapstructure:"cost_efficiency"`
	Latency        float64 `json:"latency" mapstructure:"latency"`
	Reliability    float64 `json:"reliability" mapstructure:"reliability"`
}

// DefaultScoreWeights returns the scorecard blend: quality-dominant.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Quality: 0.4, CostEfficiency: 0.3, Latency: 0.2, Reliability: 0.1}
}

// Normalized returns the weights scaled to sum to 1.0. Zero or negative
// totals fall back to the defaults.
func (w ScoreWeights) Normalized() ScoreWeights {
	sum := w.Quality + w.CostEfficiency + w.Latency + w.Reliability
	if sum <= 0 {
		return DefaultScoreWeights()
	}
	return ScoreWeights{
		Quality:        w.Quality / sum,
		CostEfficiency: w.CostEfficiency / sum,
		Latency:        w.Latency / sum,
		Reliability:    w.Reliability / sum,
	}
}

// Blend applies the weights to the four component scores.
func (w ScoreWeights) Blend(quality, costEff, latency, reliability float64) float64 {
	return w.Quality*quality + w.CostEfficiency*costEff + w.Latency*latency + w.Reliability*reliability
}

// ScorecardConfig holds the scoring thresholds and normalization caps.
type ScorecardConfig struct {
	Weights ScoreWeights `json:"weights" mapstructure:"weights"`

	// MaxCostPerSuccessUSD is the cost-per-success at which cost efficiency
	// bottoms out at 0.
	MaxCostPerSuccessUSD float64 `json:"max_cost_per_success_usd" mapstructure:"max_cost_per_success_usd"`
	// MaxLatencyMs is the mean latency at which the latency score bottoms
	// out at 0.
	MaxLatencyMs float64 `json:"max_latency_ms" mapstructure:"max_latency_ms"`

	RemoveThreshold  float64 `json:"remove_threshold" mapstructure:"remove_threshold"`
	DemoteThreshold  float64 `json:"demote_threshold" mapstructure:"demote_threshold"`
	PromoteThreshold float64 `json:"promote_threshold" mapstructure:"promote_threshold"`
	MinReliability   float64 `json:"min_reliability" mapstructure:"min_reliability"`
}

// DefaultScorecardConfig returns the documented defaults.
func DefaultScorecardConfig() ScorecardConfig {
	return ScorecardConfig{
		Weights:              DefaultScoreWeights(),
		MaxCostPerSuccessUSD: 0.50,
		MaxLatencyMs:         5000,
		RemoveThreshold:      0.2,
		DemoteThreshold:      0.4,
		PromoteThreshold:     0.8,
		MinReliability:       0.5,
	}
}

// ProviderScore is a derived snapshot of one provider's performance. It has
// no lifecycle of its own: always recomputed from a MetricEntry plus the
// static registry.
type ProviderScore struct {
	Provider string `json:"provider"`

	Quality        float64 `json:"quality"`
	CostEfficiency float64 `json:"cost_efficiency"`
	Latency        float64 `json:"latency"`
	Reliability    float64 `json:"reliability"`
	Blended        float64 `json:"blended"`

	Recommendation  Recommendation `json:"recommendation"`
	CurrentTier     registry.Tier  `json:"current_tier"`
	RecommendedTier registry.Tier  `json:"recommended_tier"`

	CostPerSuccessUSD float64 `json:"cost_per_success_usd"`
	MeanLatencyMs     float64 `json:"mean_latency_ms"`
	CallsMade         int     `json:"calls_made"`
	Successes         int     `json:"successes"`
	Failures          int     `json:"failures"`
}

// Scorecard computes provider scores from metrics snapshots plus static
// registry data.
type Scorecard struct {
	cfg ScorecardConfig
	reg *registry.Registry
}

// NewScorecard creates a scorecard. Supplied weights are re-normalized;
// zero-valued caps and thresholds take the documented defaults.
func NewScorecard(cfg ScorecardConfig, reg *registry.Registry) *Scorecard {
	def := DefaultScorecardConfig()
	if cfg.MaxCostPerSuccessUSD <= 0 {
		cfg.MaxCostPerSuccessUSD = def.MaxCostPerSuccessUSD
	}
	if cfg.MaxLatencyMs <= 0 {
		cfg.MaxLatencyMs = def.MaxLatencyMs
	}
	if cfg.RemoveThreshold <= 0 {
		cfg.RemoveThreshold = def.RemoveThreshold
	}
	if cfg.DemoteThreshold <= 0 {
		cfg.DemoteThreshold = def.DemoteThreshold
	}
	if cfg.PromoteThreshold <= 0 {
		cfg.PromoteThreshold = def.PromoteThreshold
	}
	if cfg.MinReliability <= 0 {
		cfg.MinReliability = def.MinReliability
	}
	cfg.Weights = cfg.Weights.Normalized()
	return &Scorecard{cfg: cfg, reg: reg}
}

// Config returns the effective (normalized, defaulted) configuration.
func (sc *Scorecard) Config() ScorecardConfig { return sc.cfg }

// Compute derives one ProviderScore per provider present in the snapshot.
// Results are sorted by blended score descending, name ascending on ties.
func (sc *Scorecard) Compute(snapshot map[string]MetricEntry) []ProviderScore {
	scores := make([]ProviderScore, 0, len(snapshot))
	for provider, entry := range snapshot {
		scores = append(scores, sc.score(provider, entry))
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Blended != scores[j].Blended {
			return scores[i].Blended > scores[j].Blended
		}
		return scores[i].Provider < scores[j].Provider
	})
	return scores
}

func (sc *Scorecard) score(provider string, e MetricEntry) ProviderScore {
	quality := 0.0
	if e.PatternsFound > 0 {
		quality = float64(e.VerifiedHits) / float64(e.PatternsFound)
	}

	// Cost per success uses the best available denominator.
	costPerSuccess := 0.0
	switch {
	case e.VerifiedHits > 0:
		costPerSuccess = e.CostUSD / float64(e.VerifiedHits)
	case e.PatternsFound > 0:
		costPerSuccess = e.CostUSD / float64(e.PatternsFound)
	case e.CallsMade > 0:
		costPerSuccess = e.CostUSD / float64(e.CallsMade)
	}
	costEff := math.Max(0, 1-costPerSuccess/sc.cfg.MaxCostPerSuccessUSD)

	latency := 1.0
	meanLatency := e.MeanLatencyMs()
	if len(e.LatenciesMs) > 0 {
		latency = math.Max(0, 1-meanLatency/sc.cfg.MaxLatencyMs)
	}

	reliability := 1.0
	if e.CallsMade > 0 {
		reliability = math.Max(0, 1-float64(e.Errors+e.Timeouts)/float64(e.CallsMade))
	}

	blended := sc.cfg.Weights.Blend(quality, costEff, latency, reliability)
	currentTier := sc.reg.TierOf(provider)

	score := ProviderScore{
		Provider:          provider,
		Quality:           quality,
		CostEfficiency:    costEff,
		Latency:           latency,
		Reliability:       reliability,
		Blended:           blended,
		CurrentTier:       currentTier,
		RecommendedTier:   currentTier,
		CostPerSuccessUSD: costPerSuccess,
		MeanLatencyMs:     meanLatency,
		CallsMade:         e.CallsMade,
		Successes:         e.VerifiedHits,
		Failures:          e.Errors + e.Timeouts,
	}

	switch {
	case blended < sc.cfg.RemoveThreshold || reliability < sc.cfg.MinReliability:
		score.Recommendation = RecommendRemove
	case blended < sc.cfg.DemoteThreshold:
		score.Recommendation = RecommendDemote
		if demoted, ok := currentTier.Demote(); ok {
			score.RecommendedTier = demoted
		}
	case blended >= sc.cfg.PromoteThreshold && currentTier != registry.TopTier:
		score.Recommendation = RecommendPromote
		if promoted, ok := currentTier.Promote(); ok {
			score.RecommendedTier = promoted
		}
	default:
		score.Recommendation = RecommendKeep
	}

	return score
}
