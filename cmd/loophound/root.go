package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "loophound",
	Short: "Loophound is an agent-based loop detection exercise",
	Long: `Loophound hides a directed graph and lets you program tiny probe agents
(S step, N no-op, C conditional, L declare loop) to decide whether the
graph contains a cycle from partial observations only.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
}
