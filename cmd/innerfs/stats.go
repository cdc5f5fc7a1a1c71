package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print counts, sums, and breakdowns as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("stats")
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.Stats()
		if err != nil {
			return fmt.Errorf("computing stats: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
