package main

import (
	"fmt"
	"os"

	"github.com/aretw0/loophound/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a loop-detection exercise",
	Long: `Starts an exercise: the graph is loaded from --graph or generated
(optionally pinned with --seed), agents are programmed via --program flags
or interactively, and rounds advance with the 'step' and 'auto' commands.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.RunOptions{}
		opts.ConfigPath, _ = cmd.Flags().GetString("config")
		opts.GraphFile, _ = cmd.Flags().GetString("graph")
		opts.Seed, _ = cmd.Flags().GetInt64("seed")
		opts.SeedSet = cmd.Flags().Changed("seed")
		opts.Nodes, _ = cmd.Flags().GetInt("nodes")
		opts.Agents, _ = cmd.Flags().GetInt("agents")
		opts.Programs, _ = cmd.Flags().GetStringArray("program")
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.RedisAddr, _ = cmd.Flags().GetString("redis")
		opts.IntervalMs, _ = cmd.Flags().GetInt("interval")
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		opts.Debug, _ = cmd.Flags().GetBool("debug")

		if err := cli.Execute(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("graph", "", "Path to a serialized graph document")
	runCmd.Flags().Int64("seed", 0, "Generator seed for a reproducible graph")
	runCmd.Flags().Int("nodes", 0, "Generator node count (1 to 33)")
	runCmd.Flags().Int("agents", 0, "Number of probe agents (1 to 5)")
	runCmd.Flags().StringArray("program", nil, "Agent program, repeatable (e.g. --program SCL --program S)")
	runCmd.Flags().String("session", "", "Session ID for persistence and resume")
	runCmd.Flags().String("redis", "", "Redis address for shared persistence")
	runCmd.Flags().Int("interval", 0, "Auto-progress interval in milliseconds")
	runCmd.Flags().Bool("headless", false, "Run rounds automatically until the verdict, no prompts")

	// Make 'run' the default if no command is provided.
	rootCmd.Run = runCmd.Run
}
