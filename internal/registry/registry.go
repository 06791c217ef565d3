package registry

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Provider is the static configuration for one data-enrichment provider.
// Loaded once at startup and treated as read-only for the process lifetime.
type Provider struct {
	Name        string   `yaml:"name" json:"name"`
	DefaultTier Tier     `yaml:"tier" json:"tier"`
	Category    string   `yaml:"category" json:"category"`
	UseCases    []string `yaml:"use_cases" json:"use_cases"`
	CostPerCall float64  `yaml:"cost_per_call" json:"cost_per_call"`
}

// Registry holds the static provider roster plus the per-tier membership
// whitelist. An empty registry is valid; the engine degrades to its
// default-plan fallback.
type Registry struct {
	providers map[string]Provider
	whitelist map[Tier]map[string]bool
}

// file is the on-disk YAML shape.
type file struct {
	Providers []Provider        `yaml:"providers"`
	Whitelist map[Tier][]string `yaml:"tier_whitelist"`
}

// Load reads the provider registry from a YAML file. A missing file is not
// an error; it yields an empty registry (configuration absence degrades to
// default behavior). A malformed file or an unknown tier name is a hard
// error: that indicates a deployment mistake, not data sparsity.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(nil, nil), nil
		}
		return nil, eris.Wrapf(err, "registry: read %s", path)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "registry: parse")
	}

	for _, p := range f.Providers {
		if p.Name == "" {
			return nil, eris.New("registry: provider with empty name")
		}
		if !p.DefaultTier.Valid() {
			return nil, eris.Errorf("registry: provider %s: invalid tier", p.Name)
		}
	}

	return New(f.Providers, f.Whitelist), nil
}

// New builds a registry from in-memory configuration. Providers absent from
// the whitelist of any tier may never move into that tier. If the whitelist
// is nil entirely, every provider is whitelisted for every tier.
func New(providers []Provider, whitelist map[Tier][]string) *Registry {
	r := &Registry{
		providers: make(map[string]Provider, len(providers)),
		whitelist: make(map[Tier]map[string]bool),
	}
	for _, p := range providers {
		r.providers[p.Name] = p
	}
	if whitelist == nil {
		for _, t := range Tiers() {
			all := make(map[string]bool, len(providers))
			for _, p := range providers {
				all[p.Name] = true
			}
			r.whitelist[t] = all
		}
		return r
	}
	for t, names := range whitelist {
		set := make(map[string]bool, len(names))
		for _, n := range names {
			set[n] = true
		}
		r.whitelist[t] = set
	}
	return r
}

// Empty reports whether the registry has no providers configured.
func (r *Registry) Empty() bool {
	return len(r.providers) == 0
}

// Provider returns the static config for a provider by name.
func (r *Registry) Provider(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns all provider names, sorted for deterministic iteration.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TierOf returns the provider's statically configured tier, defaulting to
// the bottom tier for unknown providers.
func (r *Registry) TierOf(name string) Tier {
	if p, ok := r.providers[name]; ok {
		return p.DefaultTier
	}
	return BottomTier
}

// CostOf returns the provider's static cost per call, 0 if unknown.
func (r *Registry) CostOf(name string) float64 {
	return r.providers[name].CostPerCall
}

// Whitelisted reports whether the provider may occupy the given tier. A
// provider is always whitelisted for its own default tier, so static
// configuration can never violate tier membership.
func (r *Registry) Whitelisted(t Tier, name string) bool {
	if p, ok := r.providers[name]; ok && p.DefaultTier == t {
		return true
	}
	return r.whitelist[t][name]
}

// DefaultAssignment returns the static tier layout: every provider in its
// configured default tier, sorted by name within each tier.
func (r *Registry) DefaultAssignment() map[Tier][]string {
	out := make(map[Tier][]string, len(tierNames))
	for _, t := range Tiers() {
		out[t] = []string{}
	}
	for _, name := range r.Names() {
		t := r.providers[name].DefaultTier
		out[t] = append(out[t], name)
	}
	return out
}

// CostProfile returns the provider → cost-per-call map.
func (r *Registry) CostProfile() map[string]float64 {
	out := make(map[string]float64, len(r.providers))
	for name, p := range r.providers {
		out[name] = p.CostPerCall
	}
	return out
}

// Providers returns all provider configs sorted by name.
func (r *Registry) Providers() []Provider {
	out := make([]Provider, 0, len(r.providers))
	for _, name := range r.Names() {
		out = append(out, r.providers[name])
	}
	return out
}
