package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/lucasew/mediacache/internal/app"
	"github.com/lucasew/mediacache/internal/humanfmt"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadConfig reads the effective configuration from flags, env and file.
func loadConfig() (app.Config, error) {
	maxSize, err := humanfmt.ParseSize(viper.GetString("max-cache-size"))
	if err != nil {
		return app.Config{}, fmt.Errorf("max-cache-size: %w", err)
	}
	minFree, err := humanfmt.ParseSize(viper.GetString("min-free-space"))
	if err != nil {
		return app.Config{}, fmt.Errorf("min-free-space: %w", err)
	}

	return app.Config{
		CacheDir:         viper.GetString("cache-dir"),
		StagingDir:       viper.GetString("staging-dir"),
		IndexPath:        viper.GetString("index-db"),
		LockPath:         viper.GetString("lock-file"),
		MaxCacheSize:     maxSize,
		MinFreeSpace:     minFree,
		TTL:              viper.GetDuration("ttl"),
		EvictionInterval: viper.GetDuration("eviction-interval"),
		EvictionStrategy: viper.GetString("eviction-strategy"),
		LogLevel:         viper.GetString("log-level"),
		LogFormat:        viper.GetString("log-format"),
	}, nil
}

// fileConfig is the TOML form of app.Config, with human-readable sizes and
// durations that the config loader accepts back.
type fileConfig struct {
	CacheDir         string `toml:"cache-dir"`
	StagingDir       string `toml:"staging-dir,omitempty"`
	IndexPath        string `toml:"index-db"`
	LockPath         string `toml:"lock-file,omitempty"`
	MaxCacheSize     string `toml:"max-cache-size"`
	MinFreeSpace     string `toml:"min-free-space"`
	TTL              string `toml:"ttl"`
	EvictionInterval string `toml:"eviction-interval"`
	EvictionStrategy string `toml:"eviction-strategy"`
	LogLevel         string `toml:"log-level"`
	LogFormat        string `toml:"log-format"`
}

func toFileConfig(cfg app.Config) fileConfig {
	return fileConfig{
		CacheDir:         cfg.CacheDir,
		StagingDir:       cfg.StagingDir,
		IndexPath:        cfg.IndexPath,
		LockPath:         cfg.LockPath,
		MaxCacheSize:     humanize.IBytes(uint64(cfg.MaxCacheSize)),
		MinFreeSpace:     humanize.IBytes(uint64(cfg.MinFreeSpace)),
		TTL:              cfg.TTL.String(),
		EvictionInterval: cfg.EvictionInterval.String(),
		EvictionStrategy: cfg.EvictionStrategy,
		LogLevel:         cfg.LogLevel,
		LogFormat:        cfg.LogFormat,
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Prints the effective configuration as TOML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := toml.Marshal(toFileConfig(cfg))
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
