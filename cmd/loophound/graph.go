package main

import (
	"fmt"
	"os"

	"github.com/aretw0/loophound/internal/compiler"
	"github.com/aretw0/loophound/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export a graph document as Mermaid",
	Long:  `Parses a serialized graph document and outputs a Mermaid diagram (graph TD), loop edge included.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Printf("Error reading graph file: %v\n", err)
			os.Exit(1)
		}

		g, err := compiler.Parse(string(data))
		if err != nil {
			fmt.Printf("Error parsing graph: %v\n", err)
			os.Exit(1)
		}

		fmt.Print(graph.GenerateMermaid(g, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
