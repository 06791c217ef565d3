package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/provider-bench/internal/registry"
)

var optimizeJSON bool

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run one optimization cycle and print the resulting plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := initEngine()
		if err != nil {
			return err
		}

		plan := engine.Optimize()

		if optimizeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(plan); err != nil {
				return eris.Wrap(err, "encode plan")
			}
			return nil
		}

		fmt.Printf("plan %s\n%s\n\n", plan.ID, plan.Rationale)
		for _, tier := range registry.Tiers() {
			fmt.Printf("%-8s %v\n", tier, plan.Global[tier])
		}
		return nil
	},
}

func init() {
	optimizeCmd.Flags().BoolVar(&optimizeJSON, "json", false, "print the full plan as JSON")
	rootCmd.AddCommand(optimizeCmd)
}
