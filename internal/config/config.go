// Package config loads application configuration via viper and initializes
// the global zap logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/provider-bench/internal/benchmark"
	"github.com/sells-group/provider-bench/internal/waterfall"
)

// Config holds the full application configuration.
type Config struct {
	// RegistryPath points at the static provider registry YAML (providers,
	// default tiers, costs, tier whitelist).
	RegistryPath string `yaml:"registry_path" mapstructure:"registry_path"`

	Engine EngineConfig `yaml:"engine" mapstructure:"engine"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// EngineConfig carries every scoring and optimization knob. Defaults match
// the documented constants; custom weights are re-normalized at engine
// construction.
type EngineConfig struct {
	Scorecard    benchmark.ScorecardConfig `yaml:"scorecard" mapstructure:"scorecard"`
	Waterfall    waterfall.Config          `yaml:"waterfall" mapstructure:"waterfall"`
	HistoryLimit int                       `yaml:"history_limit" mapstructure:"history_limit"`
}

// Options converts the config into engine options.
func (c EngineConfig) Options() benchmark.Options {
	return benchmark.Options{
		Scorecard:    c.Scorecard,
		Waterfall:    c.Waterfall,
		HistoryLimit: c.HistoryLimit,
	}
}

// ServerConfig configures the diagnostics HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
	// RatePerSecond caps request throughput on the diagnostics endpoints.
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROVIDERBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("registry_path", "providers.yaml")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_second", 10)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("engine.history_limit", benchmark.DefaultHistoryLimit)
	v.SetDefault("engine.scorecard.weights.quality", 0.4)
	v.SetDefault("engine.scorecard.weights.cost_efficiency", 0.3)
	v.SetDefault("engine.scorecard.weights.latency", 0.2)
	v.SetDefault("engine.scorecard.weights.reliability", 0.1)
	v.SetDefault("engine.scorecard.max_cost_per_success_usd", 0.50)
	v.SetDefault("engine.scorecard.max_latency_ms", 5000)
	v.SetDefault("engine.scorecard.remove_threshold", 0.2)
	v.SetDefault("engine.scorecard.demote_threshold", 0.4)
	v.SetDefault("engine.scorecard.promote_threshold", 0.8)
	v.SetDefault("engine.scorecard.min_reliability", 0.5)
	v.SetDefault("engine.waterfall.rank_weights.quality", 0.6)
	v.SetDefault("engine.waterfall.rank_weights.cost_efficiency", 0.2)
	v.SetDefault("engine.waterfall.rank_weights.latency", 0.1)
	v.SetDefault("engine.waterfall.rank_weights.reliability", 0.1)
	v.SetDefault("engine.waterfall.stabilization.cooldown_cycles", 3)
	v.SetDefault("engine.waterfall.stabilization.no_thrash_threshold", 0.10)
	v.SetDefault("engine.waterfall.stabilization.failure_limit", 5)
	v.SetDefault("engine.waterfall.stabilization.freeze_top_n", 3)
	v.SetDefault("engine.waterfall.assigner.promotion_threshold", 0.8)
	v.SetDefault("engine.waterfall.assigner.demotion_threshold", 0.4)
	v.SetDefault("engine.waterfall.assigner.removal_threshold", 0.2)
	v.SetDefault("engine.waterfall.assigner.min_reliability", 0.5)
	v.SetDefault("engine.waterfall.assigner.min_calls_for_decision", 10)
	v.SetDefault("engine.waterfall.assigner.failure_limit", 5)
	v.SetDefault("engine.waterfall.talent_flow_weights.latency", 0.50)
	v.SetDefault("engine.waterfall.talent_flow_weights.cost_efficiency", 0.35)
	v.SetDefault("engine.waterfall.talent_flow_weights.quality", 0.15)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
