package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/provider-bench/internal/benchmark"
)

// chdir changes the working directory for the duration of the test,
// matching t.Chdir which requires Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "providers.yaml", cfg.RegistryPath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, benchmark.DefaultHistoryLimit, cfg.Engine.HistoryLimit)
	assert.InDelta(t, 0.4, cfg.Engine.Scorecard.Weights.Quality, 1e-9)
	assert.InDelta(t, 0.8, cfg.Engine.Scorecard.PromoteThreshold, 1e-9)
	assert.Equal(t, 3, cfg.Engine.Waterfall.Stabilization.CooldownCycles)
	assert.InDelta(t, 0.6, cfg.Engine.Waterfall.RankWeights.Quality, 1e-9)
	assert.InDelta(t, 0.50, cfg.Engine.Waterfall.TalentFlow.Latency, 1e-9)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
registry_path: /etc/bench/providers.yaml
server:
  port: 9999
engine:
  history_limit: 10
  scorecard:
    promote_threshold: 0.9
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/etc/bench/providers.yaml", cfg.RegistryPath)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Engine.HistoryLimit)
	assert.InDelta(t, 0.9, cfg.Engine.Scorecard.PromoteThreshold, 1e-9)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys keep their defaults.
	assert.InDelta(t, 0.2, cfg.Engine.Scorecard.RemoveThreshold, 1e-9)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PROVIDERBENCH_SERVER_PORT", "7070")
	t.Setenv("PROVIDERBENCH_REGISTRY_PATH", "custom.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "custom.yaml", cfg.RegistryPath)
}

func TestLoad_BadConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{not yaml::"), 0o644))
	chdir(t, dir)

	_, err := Load()
	assert.Error(t, err)
}

func TestEngineConfig_Options(t *testing.T) {
	ec := EngineConfig{HistoryLimit: 7}
	opts := ec.Options()

	assert.Equal(t, 7, opts.HistoryLimit)
	assert.Nil(t, opts.Scorer)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	assert.Error(t, InitLogger(LogConfig{Level: "shouting", Format: "json"}))
}
