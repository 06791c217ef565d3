package waterfall

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/provider-bench/internal/registry"
)

// PlanMetadata carries cycle bookkeeping alongside a plan.
type PlanMetadata struct {
	Cycle             int  `json:"cycle"`
	ProvidersAnalyzed int  `json:"providers_analyzed"`
	LiveData          bool `json:"live_data"`
}

// Plan is the immutable output of one optimization cycle. Created once per
// cycle, appended to the engine's in-memory history, never mutated.
type Plan struct {
	ID         string                     `json:"id"`
	Global     map[registry.Tier][]string `json:"global"`
	Company    map[registry.Tier][]string `json:"company"`
	People     map[registry.Tier][]string `json:"people"`
	TalentFlow map[registry.Tier][]string `json:"talent_flow"`

	Promoted []string `json:"promoted"`
	Demoted  []string `json:"demoted"`
	Removed  []string `json:"removed"`

	Rationale string       `json:"rationale"`
	CreatedAt time.Time    `json:"created_at"`
	Metadata  PlanMetadata `json:"metadata"`
}

// NewPlan assembles a plan from an assignment and its derived profiles.
func NewPlan(asn Assignment, profiles Profiles, meta PlanMetadata) *Plan {
	return &Plan{
		ID:         uuid.NewString(),
		Global:     profiles.Global,
		Company:    profiles.Company,
		People:     profiles.People,
		TalentFlow: profiles.TalentFlow,
		Promoted:   asn.Promoted,
		Demoted:    asn.Demoted,
		Removed:    asn.Removed,
		Rationale:  buildRationale(asn, meta),
		CreatedAt:  time.Now().UTC(),
		Metadata:   meta,
	}
}

// DefaultPlan returns the fallback plan used when no live scoring data is
// available: the static tier layout, no changes, and a rationale saying so.
func DefaultPlan(reg *registry.Registry, cycle int) *Plan {
	layout := reg.DefaultAssignment()
	meta := PlanMetadata{Cycle: cycle, ProvidersAnalyzed: 0, LiveData: false}
	return &Plan{
		ID:         uuid.NewString(),
		Global:     layout,
		Company:    copyTiers(layout),
		People:     copyTiers(layout),
		TalentFlow: copyTiers(layout),
		Promoted:   []string{},
		Demoted:    []string{},
		Removed:    []string{},
		Rationale:  "live scoring data unavailable; using static default tier assignment",
		CreatedAt:  time.Now().UTC(),
		Metadata:   meta,
	}
}

// Order flattens a tier layout into the waterfall call order: tier0 first,
// best-ranked provider first within each tier.
func Order(tiers map[registry.Tier][]string) []string {
	var out []string
	for _, t := range registry.Tiers() {
		out = append(out, tiers[t]...)
	}
	return out
}

// Providers returns the set of providers present in the plan's global
// layout, sorted.
func (p *Plan) Providers() []string {
	names := Order(p.Global)
	sort.Strings(names)
	return names
}

func buildRationale(asn Assignment, meta PlanMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "cycle %d: analyzed %d providers", meta.Cycle, meta.ProvidersAnalyzed)
	if len(asn.Promoted) > 0 {
		fmt.Fprintf(&b, "; promoted %s", strings.Join(asn.Promoted, ", "))
	}
	if len(asn.Demoted) > 0 {
		fmt.Fprintf(&b, "; demoted %s", strings.Join(asn.Demoted, ", "))
	}
	if len(asn.Removed) > 0 {
		fmt.Fprintf(&b, "; removed %s", strings.Join(asn.Removed, ", "))
	}
	if len(asn.Promoted)+len(asn.Demoted)+len(asn.Removed) == 0 {
		b.WriteString("; no tier changes")
	}
	return b.String()
}
