// Command sleepsim runs simulated nights through the sleep analysis offline, or feeds
// simulated sensor readings to a running server.
package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sleepsim",
		Short: "Simulate nights of movement and sound readings",
	}
	rootCmd.AddCommand(nightCmd())
	rootCmd.AddCommand(streamCmd())
	rootCmd.AddCommand(watchCmd())

	if err := fang.Execute(context.Background(), rootCmd, fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM)); err != nil {
		os.Exit(1)
	}
}
