package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/provider-bench/internal/benchmark"
)

var (
	scoresTopN      int
	scoresUnderperf float64
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Print the current provider scorecard",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := initEngine()
		if err != nil {
			return err
		}

		var scores []benchmark.ProviderScore
		switch {
		case scoresTopN > 0:
			scores = engine.TopPerformers(scoresTopN)
		case scoresUnderperf > 0:
			scores = engine.Underperformers(scoresUnderperf)
		default:
			scores = engine.Scores(true)
		}

		p := message.NewPrinter(language.English)
		p.Printf("%-16s %-8s %7s %7s %7s %7s %7s %10s %8s\n",
			"PROVIDER", "TIER", "BLEND", "QUAL", "COST", "LAT", "REL", "CALLS", "REC")
		for _, s := range scores {
			p.Printf("%-16s %-8s %7.3f %7.3f %7.3f %7.3f %7.3f %10d %8s\n",
				s.Provider, s.CurrentTier, s.Blended, s.Quality, s.CostEfficiency,
				s.Latency, s.Reliability, s.CallsMade, s.Recommendation)
		}
		return nil
	},
}

func init() {
	scoresCmd.Flags().IntVar(&scoresTopN, "top", 0, "show only the N best providers")
	scoresCmd.Flags().Float64Var(&scoresUnderperf, "under", 0, "show providers blended below this threshold")
	rootCmd.AddCommand(scoresCmd)
}
