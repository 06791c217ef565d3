package waterfall

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/provider-bench/internal/registry"
)

// AssignerConfig holds the tier-change thresholds.
type AssignerConfig struct {
	// PromotionThreshold is the blended score at or above which a provider
	// moves one tier toward tier0. Default: 0.8.
	PromotionThreshold float64 `json:"promotion_threshold" mapstructure:"promotion_threshold"`
	// DemotionThreshold is the blended score below which a provider moves
	// one tier toward tier3. Default: 0.4.
	DemotionThreshold float64 `json:"demotion_threshold" mapstructure:"demotion_threshold"`
	// RemovalThreshold is the blended score below which a provider is a
	// removal candidate. Default: 0.2.
	RemovalThreshold float64 `json:"removal_threshold" mapstructure:"removal_threshold"`
	// MinReliability below which a provider is a removal candidate.
	// Default: 0.5.
	MinReliability float64 `json:"min_reliability" mapstructure:"min_reliability"`
	// MinCallsForDecision is the sample size required before any tier
	// change. Default: 10.
	MinCallsForDecision int `json:"min_calls_for_decision" mapstructure:"min_calls_for_decision"`
	// FailureLimit is the consecutive-failure streak required (together
	// with a removal-candidate score) to actually remove. Default: 5.
	FailureLimit int `json:"failure_limit" mapstructure:"failure_limit"`
}

// DefaultAssignerConfig returns the documented defaults.
func DefaultAssignerConfig() AssignerConfig {
	return AssignerConfig{
		PromotionThreshold:  0.8,
		DemotionThreshold:   0.4,
		RemovalThreshold:    0.2,
		MinReliability:      0.5,
		MinCallsForDecision: 10,
		FailureLimit:        5,
	}
}

// Assignment is the output of one tier-assignment pass.
type Assignment struct {
	Tiers    map[registry.Tier][]string `json:"tiers"`
	Promoted []string                   `json:"promoted"`
	Demoted  []string                   `json:"demoted"`
	Removed  []string                   `json:"removed"`
}

// Changed returns the names of all providers that moved tier this cycle.
func (a *Assignment) Changed() []string {
	out := make([]string, 0, len(a.Promoted)+len(a.Demoted))
	out = append(out, a.Promoted...)
	out = append(out, a.Demoted...)
	return out
}

// Assigner computes the new global tier layout from stabilized candidates.
type Assigner struct {
	cfg AssignerConfig
	reg *registry.Registry
}

// NewAssigner creates a tier assigner. Zero-valued config fields take the
// documented defaults.
func NewAssigner(cfg AssignerConfig, reg *registry.Registry) *Assigner {
	def := DefaultAssignerConfig()
	if cfg.PromotionThreshold <= 0 {
		cfg.PromotionThreshold = def.PromotionThreshold
	}
	if cfg.DemotionThreshold <= 0 {
		cfg.DemotionThreshold = def.DemotionThreshold
	}
	if cfg.RemovalThreshold <= 0 {
		cfg.RemovalThreshold = def.RemovalThreshold
	}
	if cfg.MinReliability <= 0 {
		cfg.MinReliability = def.MinReliability
	}
	if cfg.MinCallsForDecision <= 0 {
		cfg.MinCallsForDecision = def.MinCallsForDecision
	}
	if cfg.FailureLimit <= 0 {
		cfg.FailureLimit = def.FailureLimit
	}
	return &Assigner{cfg: cfg, reg: reg}
}

// Assign walks the candidates in rank order and produces the new tier
// layout. A provider moves at most one tier per cycle, only into tiers it
// is whitelisted for, and only on an adequate sample. Removal is checked
// independently of the allow-change flag: a provider that is both scoring
// as removable and on a sustained failure streak goes regardless of
// cooldown state.
func (a *Assigner) Assign(candidates []Candidate) Assignment {
	asn := Assignment{
		Tiers:    make(map[registry.Tier][]string, len(registry.Tiers())),
		Promoted: []string{},
		Demoted:  []string{},
		Removed:  []string{},
	}
	for _, t := range registry.Tiers() {
		asn.Tiers[t] = []string{}
	}

	placed := make(map[string]bool, len(candidates))
	blendedOf := make(map[string]float64, len(candidates))

	for _, c := range candidates {
		blendedOf[c.Provider] = c.Blended

		if a.removable(c) {
			asn.Removed = append(asn.Removed, c.Provider)
			placed[c.Provider] = true
			zap.L().Info("waterfall: removing provider",
				zap.String("provider", c.Provider),
				zap.Float64("blended", c.Blended),
				zap.Float64("reliability", c.Reliability),
				zap.Int("consecutive_failures", c.ConsecutiveFailures),
			)
			continue
		}

		tier := c.CurrentTier
		if c.AllowChange && c.CallsMade >= a.cfg.MinCallsForDecision {
			switch {
			case c.Blended >= a.cfg.PromotionThreshold:
				if candidate, ok := tier.Promote(); ok && a.reg.Whitelisted(candidate, c.Provider) {
					tier = candidate
					asn.Promoted = append(asn.Promoted, c.Provider)
				}
			case c.Blended < a.cfg.DemotionThreshold:
				if candidate, ok := tier.Demote(); ok && a.reg.Whitelisted(candidate, c.Provider) {
					tier = candidate
					asn.Demoted = append(asn.Demoted, c.Provider)
				}
			}
		}

		asn.Tiers[tier] = append(asn.Tiers[tier], c.Provider)
		placed[c.Provider] = true
	}

	// Fail-safe: statically known providers that produced no metrics this
	// cycle still belong in their default tier, so nothing silently
	// disappears from the waterfall.
	for _, name := range a.reg.Names() {
		if placed[name] {
			continue
		}
		tier := a.reg.TierOf(name)
		asn.Tiers[tier] = append(asn.Tiers[tier], name)
	}

	// Within each tier, best blended score first. Providers without scores
	// sort after scored ones, alphabetically.
	for tier, names := range asn.Tiers {
		sort.SliceStable(names, func(i, j int) bool {
			bi, iok := blendedOf[names[i]]
			bj, jok := blendedOf[names[j]]
			if iok != jok {
				return iok
			}
			if bi != bj {
				return bi > bj
			}
			return names[i] < names[j]
		})
		asn.Tiers[tier] = names
	}

	return asn
}

func (a *Assigner) removable(c Candidate) bool {
	if c.ConsecutiveFailures < a.cfg.FailureLimit {
		return false
	}
	return c.Blended < a.cfg.RemovalThreshold || c.Reliability < a.cfg.MinReliability
}
