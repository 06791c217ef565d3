// Package registry holds the static provider configuration consumed at
// startup: which providers exist, which waterfall tier each defaults to,
// what a call to each costs, and which providers may occupy each tier.
package registry

import (
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Tier is a priority/cost bucket in the provider waterfall. Tier0 is the
// free/fastest-tried bucket, Tier3 the most expensive last resort. Adjacency
// is array-index arithmetic, so promotion and demotion are single-step moves.
type Tier int

const (
	Tier0 Tier = iota
	Tier1
	Tier1_5
	Tier2
	Tier3
)

var tierNames = [...]string{"tier0", "tier1", "tier1_5", "tier2", "tier3"}

// Tiers lists all tiers in waterfall order, cheapest first.
func Tiers() []Tier {
	return []Tier{Tier0, Tier1, Tier1_5, Tier2, Tier3}
}

// TopTier is the cheapest tier a provider can be promoted into.
const TopTier = Tier0

// BottomTier is the most expensive tier a provider can be demoted into.
const BottomTier = Tier3

func (t Tier) String() string {
	if t >= 0 && int(t) < len(tierNames) {
		return tierNames[t]
	}
	return "unknown"
}

// Valid reports whether t is one of the defined tiers.
func (t Tier) Valid() bool {
	return t >= Tier0 && t <= Tier3
}

// Promote returns the tier one step toward Tier0. The bool is false when t
// is already the top tier.
func (t Tier) Promote() (Tier, bool) {
	if t <= Tier0 {
		return t, false
	}
	return t - 1, true
}

// Demote returns the tier one step toward Tier3. The bool is false when t
// is already the bottom tier.
func (t Tier) Demote() (Tier, bool) {
	if t >= Tier3 {
		return t, false
	}
	return t + 1, true
}

// ParseTier converts a tier name ("tier0" ... "tier3") to a Tier.
func ParseTier(s string) (Tier, error) {
	for i, name := range tierNames {
		if name == s {
			return Tier(i), nil
		}
	}
	return 0, eris.Errorf("registry: unknown tier %q", s)
}

// MarshalText implements encoding.TextMarshaler. Text marshaling (rather
// than JSON marshaling) keeps tier names readable when tiers are used as
// JSON map keys.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(data []byte) error {
	parsed, err := ParseTier(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (t Tier) MarshalYAML() (any, error) {
	return t.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Tier) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
