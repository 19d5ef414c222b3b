package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/loophound"
	"github.com/aretw0/loophound/pkg/adapters/mcp"
	"github.com/aretw0/loophound/pkg/domain"
	"github.com/aretw0/loophound/pkg/generator"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Hosts one exercise session as an MCP Server, so AI agents can probe the
hidden graph through the step_round / observe_agents tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		seed, _ := cmd.Flags().GetInt64("seed")
		nodes, _ := cmd.Flags().GetInt("nodes")
		programs, _ := cmd.Flags().GetStringArray("program")

		// Configure logger to stderr so stdio transport stays clean.
		opts := &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)

		genOpts := []generator.Option{}
		if cmd.Flags().Changed("seed") {
			genOpts = append(genOpts, generator.WithSeed(seed))
		}
		gen := generator.New(genOpts...)
		var (
			g   *domain.Graph
			err error
		)
		if nodes > 0 {
			g, err = gen.GraphWithSize(nodes)
		} else {
			g, err = gen.Graph()
		}
		if err != nil {
			log.Fatalf("Error generating graph: %v", err)
		}

		sessOpts := []loophound.Option{loophound.WithLogger(logger)}
		if len(programs) > 0 {
			sessOpts = append(sessOpts, loophound.WithPrograms(programs...))
		}
		sess, err := loophound.New(g, sessOpts...)
		if err != nil {
			log.Fatalf("Error initializing session: %v", err)
		}

		srv := mcp.NewServer(sess)

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			slog.Info("Starting Loophound MCP Server (Stdio)...")
			if err := srv.ServeStdio(); err != nil {
				slog.Error("MCP Server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			slog.Info("Starting Loophound MCP Server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil {
				if err != http.ErrServerClosed {
					slog.Error("MCP Server execution failed", "err", err)
					os.Exit(1)
				}
			}
			slog.Info("MCP Server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().Int64("seed", 0, "Generator seed for the hosted graph")
	mcpCmd.Flags().Int("nodes", 0, "Generator node count (1 to 33)")
	mcpCmd.Flags().StringArray("program", nil, "Agent program, repeatable")
}
