package main

import (
	"errors"
	"fmt"
	"os"

	"innerfs/internal/app"
	"innerfs/internal/config"
	"innerfs/internal/core"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "innerfs:", err)
	}
	return exitCode(err)
}

var rootCmd = &cobra.Command{
	Use:   "innerfs",
	Short: "A user-space filesystem backed by SQLite metadata and a pluggable blob store",
}

// usageError marks a failure in the arguments the user passed, mapped to
// exit code 64 rather than the generic backend-error code 2.
type usageError struct{ err error }

func (u usageError) Error() string { return u.err.Error() }
func (u usageError) Unwrap() error { return u.err }

func newUsageError(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

// configError marks a failure reading or validating config.yml, mapped to
// exit code 1 per spec.md §6's exit code table.
type configError struct{ err error }

func (c configError) Error() string { return c.err.Error() }
func (c configError) Unwrap() error { return c.err }

// verifyFailure marks verify finding at least one mismatch, mapped to exit
// code 3. It carries no message of its own; the mismatches are already
// printed by the command before returning it.
type verifyFailure struct{}

func (verifyFailure) Error() string { return "integrity verification found mismatches" }

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ue usageError
	if errors.As(err, &ue) {
		return 64
	}
	var ce configError
	if errors.As(err, &ce) {
		return 1
	}
	var vf verifyFailure
	if errors.As(err, &vf) {
		return 3
	}
	if core.KindOf(err) == core.KindIncompatibleConfig {
		return 1
	}
	return 2
}

// defaultConfigPath resolves where config.yml lives, honoring
// INNERFS_CONFIG_PATH the same way internal/config.GetDefaults does.
func defaultConfigPath() (string, error) {
	defaults, err := config.GetDefaults()
	if err != nil {
		return "", configError{err}
	}
	return defaults.ConfigPath, nil
}

// newApp reads config.yml and builds a fully wired App. operation
// identifies the invoking CLI command in the process's log lines.
func newApp(operation string) (*app.App, error) {
	path, err := defaultConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.ReadFromFile(path)
	if err != nil {
		return nil, configError{fmt.Errorf("reading %s: %w", path, err)}
	}
	if err := cfg.BackendConfig.Validate(); err != nil {
		return nil, configError{err}
	}
	for i, replica := range cfg.Replicas {
		if err := replica.Validate(); err != nil {
			return nil, configError{fmt.Errorf("replica %d: %w", i, err)}
		}
	}

	a, err := app.New(cfg, operation)
	if err != nil {
		return nil, err
	}
	return a, nil
}
