package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/loophound"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of loophound",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("loophound version %s\n", strings.TrimSpace(loophound.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
