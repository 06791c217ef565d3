package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump full engine state to a JSON file for offline audit",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := initEngine()
		if err != nil {
			return err
		}

		if err := engine.ExportToFile(exportPath); err != nil {
			return err
		}
		fmt.Printf("exported engine state to %s\n", exportPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPath, "out", "provider-bench-export.json", "output file path")
	rootCmd.AddCommand(exportCmd)
}
