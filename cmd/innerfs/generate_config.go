package main

import (
	"fmt"

	"innerfs/internal/config"

	"github.com/spf13/cobra"
)

var generateConfigCmd = &cobra.Command{
	Use:   "generate-config",
	Short: "Write a documented config.yml template",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := defaultConfigPath()
		if err != nil {
			return err
		}
		if err := config.InitTemplate(path); err != nil {
			return configError{err}
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateConfigCmd)
}
