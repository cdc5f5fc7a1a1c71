package main

import (
	"fmt"
	"os"

	"innerfs/internal/app"

	"github.com/spf13/cobra"
)

var nukeForce bool

var nukeCmd = &cobra.Command{
	Use:   "nuke",
	Short: "Irreversibly drop every blob and metadata row",
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := app.ConfirmNuke(os.Stdin, os.Stdout, nukeForce)
		if err != nil {
			return fmt.Errorf("reading confirmation: %w", err)
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}

		a, err := newApp("nuke")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Nuke(); err != nil {
			return fmt.Errorf("nuke failed: %w", err)
		}
		fmt.Println("Filesystem nuked.")
		return nil
	},
}

func init() {
	nukeCmd.Flags().BoolVar(&nukeForce, "force", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(nukeCmd)
}
