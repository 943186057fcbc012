package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/lucasew/mediacache/internal/app"
	"github.com/lucasew/mediacache/internal/errutil"
	"github.com/lucasew/mediacache/internal/humanfmt"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspects the artifact index",
}

var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists indexed artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		index, err := app.OpenIndex(cfg)
		if err != nil {
			return err
		}
		defer errutil.Close(index, "Failed to close index")

		artifacts, err := index.List(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(artifacts))
		for _, a := range artifacts {
			rows = append(rows, []string{a.Source, a.Variant, a.Category, a.MIME, humanfmt.FormatBytes(a.Size), a.Path})
		}
		fmt.Println(renderList([]string{"Source", "Variant", "Category", "MIME", "Size", "Path"}, rows, 5))
		return nil
	},
}

var indexReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Drops index entries whose artifact was evicted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		index, err := app.OpenIndex(cfg)
		if err != nil {
			return err
		}
		defer errutil.Close(index, "Failed to close index")

		removed, err := index.Reconcile(cmd.Context(), func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		})
		if err != nil {
			return err
		}
		fmt.Println("removed " + strconv.Itoa(removed) + " stale entries")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexListCmd, indexReconcileCmd)
}
