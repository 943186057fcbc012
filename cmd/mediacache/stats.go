package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/lucasew/mediacache"
	"github.com/lucasew/mediacache/internal/humanfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Shows cache size and age statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := cmd.Flags().GetBool("json")
		if err != nil {
			return err
		}

		snap, err := mediacache.GetCacheStats(cmd.Context(), viper.GetString("cache-dir"))
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}
		printStats(os.Stdout, snap)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().Bool("json", false, "Print the snapshot as JSON")
}

func printStats(w io.Writer, s *mediacache.Snapshot) {
	fields := [][2]string{
		{"Root", s.Root},
		{"Files", strconv.Itoa(s.TotalFiles)},
		{"Size", fmt.Sprintf("%s (%.2f GB)", humanfmt.FormatBytes(s.TotalSize), s.TotalSizeGB)},
		{"Oldest", describeAge(s.Oldest)},
		{"Newest", describeAge(s.Newest)},
	}
	fmt.Fprintln(w, renderFields("Cache", fields))
}

func describeAge(f *mediacache.FileAge) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%s ago)", f.Path, humanfmt.FormatDuration(f.Age))
}
