package main

import (
	"fmt"
	"io"
	"os"

	"github.com/lucasew/mediacache/internal/app"
	"github.com/lucasew/mediacache/internal/errutil"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Copies a cached artifact out and marks it as used",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := keyFromFlags(cmd)
		if err != nil {
			return err
		}
		if key.Name == "" {
			return fmt.Errorf("--name is required")
		}
		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		repo, cleanup, err := app.NewRepository(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		reader, _, err := repo.Get(cmd.Context(), key)
		if err != nil {
			return fmt.Errorf("artifact not cached: %w", err)
		}
		defer errutil.Close(reader, "Failed to close artifact")

		var out io.Writer = os.Stdout
		if output != "" {
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer errutil.Close(file, "Failed to close output file")
			out = file
		}

		if _, err := io.Copy(out, reader); err != nil {
			if output != "" {
				errutil.LogMsg(os.Remove(output), "Failed to remove output file after failed copy", "path", output)
			}
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	addKeyFlags(getCmd)
	getCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
}
