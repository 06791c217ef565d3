package benchmark

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/provider-bench/internal/registry"
	"github.com/sells-group/provider-bench/internal/waterfall"
)

// ExportState is the full diagnostic dump of an engine: raw metrics, the
// last scorecard, static configuration, batch latency summary, and plan
// history. Offline-inspection feature, not part of the optimization
// algorithm.
type ExportState struct {
	GeneratedAt time.Time `json:"generated_at"`

	Metrics     map[string]MetricEntry  `json:"metrics"`
	Scores      []ProviderScore         `json:"scores"`
	Providers   []registry.Provider     `json:"providers"`
	CostProfile map[string]float64      `json:"cost_profile"`
	Latency     map[string]LatencyStats `json:"latency_summary"`

	LastPlan *waterfall.Plan   `json:"last_plan,omitempty"`
	History  []*waterfall.Plan `json:"history,omitempty"`
}

// ExportAll captures the engine's current state.
func (e *Engine) ExportAll() ExportState {
	state := ExportState{
		GeneratedAt: time.Now().UTC(),
		Metrics:     e.metrics.Snapshot(),
		Scores:      e.Scores(false),
		Providers:   e.reg.Providers(),
		CostProfile: e.reg.CostProfile(),
		Latency:     e.batch.Summary(),
		History:     e.History(),
	}
	if len(state.History) > 0 {
		state.LastPlan = state.History[len(state.History)-1]
	}
	return state
}

// ExportToFile writes the engine state as indented JSON.
func (e *Engine) ExportToFile(path string) error {
	data, err := json.MarshalIndent(e.ExportAll(), "", "  ")
	if err != nil {
		return eris.Wrap(err, "benchmark: marshal export")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "benchmark: write export %s", path)
	}
	return nil
}
