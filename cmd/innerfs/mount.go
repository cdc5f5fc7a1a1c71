package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"innerfs/internal/fuseadapter"

	"github.com/spf13/cobra"
)

var mountCmd = &cobra.Command{
	Use:   "mount",
	Short: "Mount the filesystem at the configured mount point",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("mount")
		if err != nil {
			return err
		}
		defer a.Close()

		server, err := fuseadapter.Mount(fuseadapter.Options{
			Mountpoint: a.MountPoint(),
			Facade:     a.Facade,
		})
		if err != nil {
			return fmt.Errorf("mounting: %w", err)
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sig
			server.Unmount()
		}()

		server.Wait()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mountCmd)
}
