package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/aretw0/loophound/internal/adapters/http"
	"github.com/aretw0/loophound/internal/adapters/redis"
	"github.com/aretw0/loophound/internal/logging"
	"github.com/aretw0/loophound/pkg/adapters/memory"
	"github.com/aretw0/loophound/pkg/ports"
	"github.com/aretw0/loophound/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Hosts exercise sessions over a JSON API: create sessions, step rounds, fetch Mermaid outlines and Prometheus metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis")
		debug, _ := cmd.Flags().GetBool("debug")

		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		logger := logging.New(level)

		var store ports.StateStore = memory.NewStore()
		mgrOpts := []session.Option{session.WithLogger(logger)}
		if redisAddr != "" {
			client := backend.NewClient(&backend.Options{Addr: redisAddr})
			defer func() { _ = client.Close() }()
			store = redis.NewFromClient(client)
			mgrOpts = append(mgrOpts, session.WithLocker(redis.NewLocker(client, "loophound:run:")))
		}

		server := httpAdapter.NewServer(session.NewManager(store, mgrOpts...), httpAdapter.WithLogger(logger))

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: server.Handler(),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Loophound Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Loophound Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for shared persistence")
}
