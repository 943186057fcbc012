package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/lucasew/mediacache/internal/app"
	"github.com/lucasew/mediacache/internal/eviction"
	"github.com/lucasew/mediacache/internal/humanfmt"
	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Runs one cleanup pass over the cache",
	Long: `cleanup deletes artifacts older than --ttl, then evicts the least
recently used survivors until the cache fits --max-cache-size, then removes
directories left empty. Failures on individual files are reported, not fatal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.DryRun, err = cmd.Flags().GetBool("dry-run")
		if err != nil {
			return err
		}

		mgr, err := app.NewManager(cfg)
		if err != nil {
			return err
		}

		report, err := mgr.RunCleanup(cmd.Context())
		if errors.Is(err, eviction.ErrBusy) {
			return fmt.Errorf("another cleanup is running on %s", cfg.CacheDir)
		}
		if report != nil {
			printReport(os.Stdout, report)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().Bool("dry-run", false, "Report what would be deleted without deleting")
}

func printReport(w io.Writer, r *eviction.Report) {
	mode := "delete"
	if r.DryRun {
		mode = "dry run"
	}
	fields := [][2]string{
		{"Run", r.RunID},
		{"Root", r.Root},
		{"Mode", mode},
		{"Scanned", strconv.Itoa(r.Scanned)},
		{"Expired", fmt.Sprintf("%d (%s)", len(r.ExpiredPaths), humanfmt.FormatBytes(r.ExpiredBytes))},
		{"Evicted", fmt.Sprintf("%d (%s)", len(r.LRUPaths), humanfmt.FormatBytes(r.LRUBytes))},
		{"Freed", humanfmt.FormatBytes(r.BytesFreed)},
		{"Dirs removed", strconv.Itoa(r.DirsRemoved)},
		{"Errors", strconv.Itoa(len(r.Errors))},
		{"Took", r.Duration.String()},
	}
	fmt.Fprintln(w, renderFields("Cleanup", fields))

	for _, e := range r.ErrorStrings() {
		fmt.Fprintln(w, "error:", e)
	}
}
