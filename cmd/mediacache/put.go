package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/lucasew/mediacache/internal/app"
	"github.com/lucasew/mediacache/internal/errutil"
	"github.com/lucasew/mediacache/internal/repository"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put <file>",
	Short: "Stores a derived artifact in the cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]
		key, err := keyFromFlags(cmd)
		if err != nil {
			return err
		}
		if key.Name == "" {
			key.Name = filepath.Base(file)
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

		fetcher := func() (io.ReadCloser, int64, error) {
			f, err := os.Open(file)
			if err != nil {
				return nil, 0, err
			}
			info, err := f.Stat()
			if err != nil {
				_ = f.Close()
				return nil, 0, err
			}
			bar := newProgressBar(info.Size(), "caching")
			return &progressReader{ReadCloser: f, bar: bar}, info.Size(), nil
		}

		path, err := repo.Put(cmd.Context(), key, fetcher)
		if err != nil {
			return fmt.Errorf("failed to store %s: %w", file, err)
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
	addKeyFlags(putCmd)
}

func addKeyFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", "", "Original media the artifact was derived from")
	cmd.Flags().String("variant", "", "Variant of the derivation, e.g. 720p or thumb")
	cmd.Flags().String("name", "", "Artifact file name; its extension selects the category")
}

func keyFromFlags(cmd *cobra.Command) (repository.Key, error) {
	var key repository.Key
	var err error
	if key.Source, err = cmd.Flags().GetString("source"); err != nil {
		return key, err
	}
	if key.Variant, err = cmd.Flags().GetString("variant"); err != nil {
		return key, err
	}
	if key.Name, err = cmd.Flags().GetString("name"); err != nil {
		return key, err
	}
	if key.Source == "" {
		return key, fmt.Errorf("--source is required")
	}
	return key, nil
}

func newProgressBar(size int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		size,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(10),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetVisibility(isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprint(os.Stderr, "\n"); err != nil {
				errutil.LogMsg(err, "Failed to print newline to stderr")
			}
		}),
	)
}

type progressReader struct {
	io.ReadCloser
	bar *progressbar.ProgressBar
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.ReadCloser.Read(b)
	if n > 0 {
		_ = p.bar.Add(n)
	}
	return n, err
}

func (p *progressReader) Close() error {
	_ = p.bar.Finish()
	return p.ReadCloser.Close()
}
