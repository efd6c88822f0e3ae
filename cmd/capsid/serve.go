package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/capsid"
	"github.com/aretw0/capsid/internal/adapters/redis"
	httpAdapter "github.com/aretw0/capsid/pkg/adapters/http"
	"github.com/aretw0/capsid/pkg/engine"
	"github.com/aretw0/capsid/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the Capsid engine in server mode, exposing run control, log
polling and an SSE event stream as a JSON API over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		redisURL, _ := cmd.Flags().GetString("redis-url")

		// One registry feeds both the engine counters and /metrics.
		registry := prometheus.NewRegistry()
		opts := []capsid.Option{capsid.WithMetrics(observability.New(registry))}

		if redisURL != "" {
			store, err := redis.New(redisURL)
			if err != nil {
				fmt.Printf("Error connecting to redis: %v\n", err)
				os.Exit(1)
			}
			defer store.Close()
			opts = append(opts, capsid.WithStore(store))
		}

		eng, err := newEngine(cmd, opts...)
		if err != nil {
			fmt.Printf("Error initializing capsid: %v\n", err)
			os.Exit(1)
		}
		ctrl := eng.Controller()

		server, err := httpAdapter.NewServer(ctrl, httpAdapter.WithMetrics(registry))
		if err != nil {
			fmt.Printf("Error building server: %v\n", err)
			os.Exit(1)
		}

		// Keepalive pings let SSE clients tell an idle engine from a dead
		// connection.
		kaCtx, kaCancel := context.WithCancel(context.Background())
		defer kaCancel()
		ctrl.StartKeepalive(kaCtx, engine.DefaultKeepaliveInterval)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: server.Handler(),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Capsid Server on %s\n", srv.Addr)
			if redisURL != "" {
				fmt.Println("Run history persisted to redis")
			}
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			// Error when starting HTTP server.
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}

			// Stop an active run so its processes exit before we do.
			if ctrl.Busy() {
				fmt.Println("Terminating active run...")
				ctrl.RequestTerminate()
			}
			ctrl.Wait()

			fmt.Println("Capsid Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis-url", "", "Redis URL for run history persistence (e.g. redis://localhost:6379/0)")
}
