package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/userdeck/userdeck/internal/daemon"
	"github.com/userdeck/userdeck/internal/dashboard"
	"github.com/userdeck/userdeck/internal/types"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Start a WebSocket dashboard for observing the cache",
	Long: `Start a WebSocket dashboard server for observing the user cache.

The server broadcasts cache state summaries to connected clients
whenever the snapshot changes. A built-in watcher follows the shared
cache file, so mutations made by concurrent ud invocations show up
live.

Endpoints:
  ws://localhost:<port>/ws   state change messages
  http://localhost:<port>/state   full snapshot as JSON
  http://localhost:<port>/health  health check

Example usage:
  ud dashboard                   # Start on default port 8080
  ud dashboard --port 9000       # Start on custom port`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")

		app, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		server := dashboard.NewServer(&dashboard.Config{
			Port:     port,
			Snapshot: func() types.Snapshot { return app.query.Snapshot() },
			Logger:   newLogger("[dashboard] "),
		})

		if err := server.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to start dashboard: %v\n", err)
			os.Exit(1)
		}

		handler := dashboard.NewHandler(server, app.store, newLogger("[dashboard] "))
		handler.Start()

		// Follow external writes to the shared cache file; each
		// rehydration notifies the handler's store subscription.
		d, err := daemon.NewWithConfig(app.store, app.storage.Path(), &daemon.Config{
			Logger: newLogger("[daemon] "),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		daemonDone := make(chan error, 1)
		go func() { daemonDone <- d.Start(ctx) }()

		fmt.Printf("Dashboard server started on http://localhost:%d\n", port)
		fmt.Printf("WebSocket endpoint: ws://localhost:%d/ws\n", port)
		fmt.Println("\nPress Ctrl+C to stop...")

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		cancel()
		if err := <-daemonDone; err != nil {
			fmt.Fprintf(os.Stderr, "Error stopping watcher: %v\n", err)
		}
		handler.Stop()
		if err := server.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error stopping dashboard: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	dashboardCmd.Flags().Int("port", 8080, "port to listen on")
	rootCmd.AddCommand(dashboardCmd)
}
