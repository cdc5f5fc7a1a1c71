package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check every file's stored body against its recorded hash and size",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("verify")
		if err != nil {
			return err
		}
		defer a.Close()

		mismatches, err := a.Verify()
		if err != nil {
			return fmt.Errorf("verify failed: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(mismatches); err != nil {
			return err
		}

		if len(mismatches) > 0 {
			return verifyFailure{}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
