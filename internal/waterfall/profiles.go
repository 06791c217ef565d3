package waterfall

import (
	"sort"

	"github.com/sells-group/provider-bench/internal/registry"
)

// TalentFlowWeights orders providers for the low-latency talent-flow
// consumer: speed first, then cost, then quality.
type TalentFlowWeights struct {
	Latency        float64 `json:"latency" mapstructure:"latency"`
	CostEfficiency float64 `json:"cost_efficiency" mapstructure:"cost_efficiency"`
	Quality        float64 `json:"quality" mapstructure:"quality"`
}

// DefaultTalentFlowWeights returns the documented talent-flow blend.
func DefaultTalentFlowWeights() TalentFlowWeights {
	return TalentFlowWeights{Latency: 0.50, CostEfficiency: 0.35, Quality: 0.15}
}

// Profiles holds the global tier layout plus the three consumer-specific
// reorderings. All four contain the same provider set; only within-tier
// order differs.
type Profiles struct {
	Global     map[registry.Tier][]string `json:"global"`
	Company    map[registry.Tier][]string `json:"company"`
	People     map[registry.Tier][]string `json:"people"`
	TalentFlow map[registry.Tier][]string `json:"talent_flow"`
}

// ProfileBuilder derives the consumer-specific orderings from a global tier
// layout and the per-provider scores. It never moves a provider across
// tiers; tier membership is the assigner's job alone.
type ProfileBuilder struct {
	weights TalentFlowWeights
}

// NewProfileBuilder creates a profile builder. Zero weights take defaults.
func NewProfileBuilder(weights TalentFlowWeights) *ProfileBuilder {
	if weights.Latency+weights.CostEfficiency+weights.Quality <= 0 {
		weights = DefaultTalentFlowWeights()
	}
	return &ProfileBuilder{weights: weights}
}

// Build derives all four orderings. The company profile is the global order
// unchanged. The people profile re-sorts tier1 and tier1_5 by quality. The
// talent-flow profile re-sorts every tier by the speed/cost blend, with
// tier0 further re-sorted purely by latency. Ties keep the existing order.
func (b *ProfileBuilder) Build(global map[registry.Tier][]string, scores []Score) Profiles {
	byName := make(map[string]Score, len(scores))
	for _, s := range scores {
		byName[s.Provider] = s
	}

	p := Profiles{
		Global:     copyTiers(global),
		Company:    copyTiers(global),
		People:     copyTiers(global),
		TalentFlow: copyTiers(global),
	}

	// People: quality-first within the mid tiers where pattern discovery
	// providers compete.
	for _, tier := range []registry.Tier{registry.Tier1, registry.Tier1_5} {
		sortByDesc(p.People[tier], func(s Score) float64 { return s.Quality }, byName)
	}

	// Talent flow: weighted speed/cost ordering in every tier.
	for _, tier := range registry.Tiers() {
		sortByDesc(p.TalentFlow[tier], func(s Score) float64 {
			return b.weights.Latency*s.Latency + b.weights.CostEfficiency*s.CostEfficiency + b.weights.Quality*s.Quality
		}, byName)
	}
	// At the free tier, speed is all that matters for this consumer.
	sortByDesc(p.TalentFlow[registry.Tier0], func(s Score) float64 { return s.Latency }, byName)

	return p
}

func copyTiers(in map[registry.Tier][]string) map[registry.Tier][]string {
	out := make(map[registry.Tier][]string, len(in))
	for tier, names := range in {
		cp := make([]string, len(names))
		copy(cp, names)
		out[tier] = cp
	}
	return out
}

// sortByDesc stably sorts names by the keyed score descending. Providers
// without a score sort last, keeping their relative order.
func sortByDesc(names []string, key func(Score) float64, byName map[string]Score) {
	sort.SliceStable(names, func(i, j int) bool {
		si, iok := byName[names[i]]
		sj, jok := byName[names[j]]
		if iok != jok {
			return iok
		}
		if !iok {
			return false
		}
		return key(si) > key(sj)
	})
}
