package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProviders() []Provider {
	return []Provider{
		{Name: "hunter", DefaultTier: Tier1, Category: "email", UseCases: []string{"pattern_discovery"}, CostPerCall: 0.01},
		{Name: "apollo", DefaultTier: Tier1_5, Category: "contact", CostPerCall: 0.05},
		{Name: "zoominfo", DefaultTier: Tier2, Category: "contact", CostPerCall: 0.25},
		{Name: "clearbit", DefaultTier: Tier2, Category: "firmographic", CostPerCall: 0.20},
	}
}

func TestRegistry_NilWhitelistAllowsEverything(t *testing.T) {
	reg := New(testProviders(), nil)

	for _, tier := range Tiers() {
		assert.True(t, reg.Whitelisted(tier, "hunter"))
		assert.True(t, reg.Whitelisted(tier, "zoominfo"))
	}
}

func TestRegistry_WhitelistGates(t *testing.T) {
	reg := New(testProviders(), map[Tier][]string{
		Tier0: {"hunter"},
	})

	assert.True(t, reg.Whitelisted(Tier0, "hunter"))
	assert.False(t, reg.Whitelisted(Tier0, "apollo"))

	// A provider is always allowed in its own default tier.
	assert.True(t, reg.Whitelisted(Tier1_5, "apollo"))
	assert.True(t, reg.Whitelisted(Tier2, "zoominfo"))
}

func TestRegistry_DefaultAssignment(t *testing.T) {
	reg := New(testProviders(), nil)

	layout := reg.DefaultAssignment()
	assert.Empty(t, layout[Tier0])
	assert.Equal(t, []string{"hunter"}, layout[Tier1])
	assert.Equal(t, []string{"apollo"}, layout[Tier1_5])
	// Sorted within tier.
	assert.Equal(t, []string{"clearbit", "zoominfo"}, layout[Tier2])
}

func TestRegistry_CostOf(t *testing.T) {
	reg := New(testProviders(), nil)

	assert.InDelta(t, 0.25, reg.CostOf("zoominfo"), 1e-9)
	assert.Zero(t, reg.CostOf("unknown"))
}

func TestRegistry_TierOfUnknownIsBottom(t *testing.T) {
	reg := New(testProviders(), nil)
	assert.Equal(t, BottomTier, reg.TierOf("mystery"))
}

func TestLoad_MissingFileIsEmptyRegistry(t *testing.T) {
	reg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.True(t, reg.Empty())
}

func TestLoad_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	content := []byte(`
providers:
  - name: hunter
    tier: tier1
    category: email
    use_cases: [pattern_discovery]
    cost_per_call: 0.01
  - name: zoominfo
    tier: tier2
    category: contact
    cost_per_call: 0.25
tier_whitelist:
  tier0: [hunter]
  tier1: [hunter]
  tier2: [hunter, zoominfo]
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	reg, err := Load(path)
	require.NoError(t, err)

	p, ok := reg.Provider("hunter")
	require.True(t, ok)
	assert.Equal(t, Tier1, p.DefaultTier)
	assert.Equal(t, []string{"pattern_discovery"}, p.UseCases)
	assert.True(t, reg.Whitelisted(Tier0, "hunter"))
	assert.False(t, reg.Whitelisted(Tier0, "zoominfo"))
}

func TestLoad_UnknownTierFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers:\n  - name: x\n    tier: tier7\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
