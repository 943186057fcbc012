package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lucasew/mediacache/internal/app"
	"github.com/lucasew/mediacache/internal/errutil"
	"github.com/spf13/cobra"
)

var janitorCmd = &cobra.Command{
	Use:   "janitor",
	Short: "Runs cleanup on an interval until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		mgr, err := app.NewManager(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("Starting janitor", "root", mgr.Root(), "interval", cfg.EvictionInterval, "ttl", cfg.TTL, "max_size", cfg.MaxCacheSize)

		// Run once right away so a freshly started janitor does not wait a full interval.
		if _, err := mgr.RunCleanup(ctx); err != nil {
			errutil.LogMsg(err, "Initial cleanup did not complete")
		}

		mgr.Start(ctx)
		slog.Info("Janitor stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(janitorCmd)
}
