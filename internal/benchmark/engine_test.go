package benchmark

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/provider-bench/internal/registry"
)

// scorerFunc adapts a closure to the Scorer interface for tests that need
// scripted scorecard output.
type scorerFunc func(map[string]MetricEntry) []ProviderScore

func (f scorerFunc) Compute(m map[string]MetricEntry) []ProviderScore { return f(m) }

func engineReg() *registry.Registry {
	return registry.New([]registry.Provider{
		{Name: "hunter", DefaultTier: registry.Tier1, CostPerCall: 0.01},
		{Name: "apollo", DefaultTier: registry.Tier1, CostPerCall: 0.05},
		{Name: "zoominfo", DefaultTier: registry.Tier2, CostPerCall: 0.25},
	}, nil)
}

func TestEngine_ObserveRecordsOutcomes(t *testing.T) {
	e := NewEngine(engineReg(), Options{})

	err := e.Observe("hunter", func() error {
		time.Sleep(time.Millisecond)
		return nil
	})
	require.NoError(t, err)

	boom := eris.New("upstream 500")
	err = e.Observe("hunter", func() error { return boom })
	assert.Equal(t, boom, err)

	entry := e.Metrics().Snapshot()["hunter"]
	assert.Equal(t, 2, entry.CallsMade)
	assert.Equal(t, 1, entry.Errors)
	assert.Len(t, entry.LatenciesMs, 1)
	assert.InDelta(t, 0.02, entry.CostUSD, 1e-9)
}

func TestEngine_ScoresCachesUntilRecalculate(t *testing.T) {
	computes := 0
	e := NewEngine(engineReg(), Options{
		Scorer: scorerFunc(func(map[string]MetricEntry) []ProviderScore {
			computes++
			return []ProviderScore{{Provider: "hunter", Blended: 0.5}}
		}),
	})

	first := e.Scores(false)
	require.Len(t, first, 1)
	assert.Equal(t, 1, computes)

	e.Scores(false)
	assert.Equal(t, 1, computes)

	e.Scores(true)
	assert.Equal(t, 2, computes)
}

func TestEngine_OptimizePromotesAndRemoves(t *testing.T) {
	e := NewEngine(engineReg(), Options{})

	// hunter: cheap, fast, every hit verified.
	for i := 0; i < 12; i++ {
		e.RecordCall("hunter")
		e.RecordResult("hunter", true, true, 800, 0)
	}
	// zoominfo: expensive and failing hard, six failures in a row.
	for i := 0; i < 10; i++ {
		e.RecordCall("zoominfo")
	}
	for i := 0; i < 4; i++ {
		e.RecordResult("zoominfo", false, false, 1200, 0)
	}
	for i := 0; i < 6; i++ {
		e.RecordError("zoominfo", "timeout")
	}

	plan := e.Optimize()

	assert.True(t, plan.Metadata.LiveData)
	assert.Equal(t, 2, plan.Metadata.ProvidersAnalyzed)
	assert.Equal(t, []string{"hunter"}, plan.Promoted)
	assert.Equal(t, []string{"zoominfo"}, plan.Removed)
	assert.Contains(t, plan.Global[registry.Tier0], "hunter")
	// apollo never made a call but still lands in its default tier.
	assert.Contains(t, plan.Global[registry.Tier1], "apollo")
	for _, tier := range registry.Tiers() {
		assert.NotContains(t, plan.Global[tier], "zoominfo")
	}

	// Optimize refreshed the cached scorecard.
	scores := e.Scores(false)
	require.Len(t, scores, 2)
	assert.Equal(t, "hunter", scores[0].Provider)
	assert.Equal(t, RecommendPromote, scores[0].Recommendation)
	assert.Equal(t, RecommendRemove, scores[1].Recommendation)
}

func TestEngine_CooldownBlocksFollowupMove(t *testing.T) {
	cycle := 0
	e := NewEngine(engineReg(), Options{
		Scorer: scorerFunc(func(map[string]MetricEntry) []ProviderScore {
			cycle++
			blended := 0.85
			if cycle > 1 {
				blended = 0.30
			}
			return []ProviderScore{{
				Provider:    "hunter",
				Quality:     blended,
				Reliability: 1.0,
				Blended:     blended,
				CallsMade:   50,
				CurrentTier: registry.Tier1,
			}}
		}),
	})

	plan := e.Optimize()
	require.Equal(t, []string{"hunter"}, plan.Promoted)

	// The score collapses right after the move; the cooldown keeps hunter
	// where the registry says until it drains.
	plan = e.Optimize()
	assert.Empty(t, plan.Promoted)
	assert.Empty(t, plan.Demoted)
	assert.Contains(t, plan.Global[registry.Tier1], "hunter")
}

func TestEngine_NoDataServesDefaultPlan(t *testing.T) {
	e := NewEngine(engineReg(), Options{Scorer: NoopScorer{}})

	plan := e.Optimize()

	assert.False(t, plan.Metadata.LiveData)
	assert.Contains(t, plan.Rationale, "unavailable")
	assert.Equal(t, []string{"apollo", "hunter"}, plan.Global[registry.Tier1])
	assert.Equal(t, []string{"zoominfo"}, plan.Global[registry.Tier2])
	assert.Equal(t, []string{"apollo", "hunter", "zoominfo"}, e.CurrentOrder())
}

func TestEngine_LastPlanBeforeAnyCycle(t *testing.T) {
	e := NewEngine(engineReg(), Options{})

	plan := e.LastPlan()
	require.NotNil(t, plan)
	assert.False(t, plan.Metadata.LiveData)
	assert.Empty(t, e.History())
}

func TestEngine_HistoryBounded(t *testing.T) {
	e := NewEngine(engineReg(), Options{HistoryLimit: 3, Scorer: NoopScorer{}})

	for i := 0; i < 5; i++ {
		e.Optimize()
	}

	history := e.History()
	require.Len(t, history, 3)
	assert.Equal(t, 3, history[0].Metadata.Cycle)
	assert.Equal(t, 5, history[2].Metadata.Cycle)
	assert.Equal(t, history[2].ID, e.LastPlan().ID)
}

func TestEngine_RecommendationQueries(t *testing.T) {
	fixed := []ProviderScore{
		{Provider: "a", Blended: 0.9, Recommendation: RecommendPromote},
		{Provider: "b", Blended: 0.5, Recommendation: RecommendKeep},
		{Provider: "c", Blended: 0.3, Recommendation: RecommendDemote},
	}
	e := NewEngine(engineReg(), Options{
		Scorer: scorerFunc(func(map[string]MetricEntry) []ProviderScore { return fixed }),
	})

	recs := e.Recommendations()
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].Provider)
	assert.Equal(t, "c", recs[1].Provider)

	top := e.TopPerformers(2)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].Provider)
	assert.Len(t, e.TopPerformers(10), 3)

	under := e.Underperformers(0.4)
	require.Len(t, under, 1)
	assert.Equal(t, "c", under[0].Provider)
}

func TestEngine_Reset(t *testing.T) {
	e := NewEngine(engineReg(), Options{})
	e.RecordCall("hunter")
	e.RecordResult("hunter", true, true, 500, 0)
	e.Optimize()

	e.Reset()

	assert.True(t, e.Metrics().Empty())
	assert.Empty(t, e.History())
	assert.False(t, e.LastPlan().Metadata.LiveData)
	assert.Empty(t, e.Scores(true))
}

func TestSharedEngine(t *testing.T) {
	t.Cleanup(ResetShared)

	first := Shared(engineReg(), Options{})
	second := Shared(nil, Options{HistoryLimit: 1})
	assert.Same(t, first, second)

	ResetShared()
	assert.NotSame(t, first, Shared(engineReg(), Options{}))
}
