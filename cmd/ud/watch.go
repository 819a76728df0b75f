package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/userdeck/userdeck/internal/daemon"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the cache file and follow external changes",
	Long: `Run the watch daemon.

The daemon watches the snapshot cache file and rehydrates the
in-memory store whenever another process writes it. Run it next to
"ud dashboard" to surface changes made by concurrent ud invocations.`,
	Run: func(cmd *cobra.Command, args []string) {
		debounce, _ := cmd.Flags().GetDuration("debounce")

		app, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		d, err := daemon.NewWithConfig(app.store, app.storage.Path(), &daemon.Config{
			DebounceInterval: debounce,
			Logger:           newLogger("[daemon] "),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sig
			cancel()
		}()

		fmt.Printf("Watching %s\nPress Ctrl+C to stop...\n", app.storage.Path())

		if err := d.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	watchCmd.Flags().Duration("debounce", 200*time.Millisecond, "debounce interval for file events")
	rootCmd.AddCommand(watchCmd)
}
