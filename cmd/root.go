package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/provider-bench/internal/benchmark"
	"github.com/sells-group/provider-bench/internal/config"
	"github.com/sells-group/provider-bench/internal/registry"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "provider-bench",
	Short: "Provider performance tracking and waterfall tier optimization",
	Long:  "Tracks per-provider call outcomes, scores quality/cost/latency/reliability, and reassigns waterfall tiers without thrashing.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// initEngine builds an engine from the configured registry file.
func initEngine() (*benchmark.Engine, error) {
	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		return nil, err
	}
	if reg.Empty() {
		zap.L().Warn("provider registry empty, engine will serve default plans",
			zap.String("path", cfg.RegistryPath),
		)
	}
	return benchmark.NewEngine(reg, cfg.Engine.Options()), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
