package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lucasew/mediacache/internal/errutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "mediacache",
	Short: "A bounded on-disk cache for transcoded media",
	Long: `mediacache keeps a directory of derived media artifacts (transcodes,
thumbnails, subtitles) within a time-to-live and a total size budget.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(viper.GetString("log-level"), viper.GetString("log-format"))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if _, printErr := fmt.Fprintln(os.Stderr, err); printErr != nil {
			errutil.ReportError(printErr, "Failed to print error to stderr")
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a TOML config file")
	flags.String("cache-dir", "./cache", "Directory holding cached artifacts")
	flags.String("staging-dir", "", "Directory for partial writes (default: hidden sibling of cache-dir)")
	flags.String("index-db", "./mediacache.db", "Artifact index database (empty disables indexing)")
	flags.String("lock-file", "", "Cleanup lock file (default: hidden sibling of cache-dir)")
	flags.String("max-cache-size", "10GiB", "Max total size of non-expired artifacts")
	flags.String("min-free-space", "0", "Min free disk space to keep on the cache filesystem (0 disables)")
	flags.Duration("ttl", 7*24*time.Hour, "Max artifact age, measured from last modification")
	flags.Duration("eviction-interval", time.Hour, "Interval between janitor runs")
	flags.String("eviction-strategy", "lru", "Order for size-based eviction (lru, fifo)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")

	for _, name := range []string{
		"config", "cache-dir", "staging-dir", "index-db", "lock-file",
		"max-cache-size", "min-free-space", "ttl", "eviction-interval",
		"eviction-strategy", "log-level", "log-format",
	} {
		mustBindPFlag(name, flags.Lookup(name))
	}
}

func initConfig() {
	viper.SetEnvPrefix("MEDIACACHE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		viper.SetConfigType("toml")
		if err := viper.ReadInConfig(); err != nil {
			errutil.ReportError(err, "Failed to read config file", "path", path)
			os.Exit(1)
		}
	}
}

func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag %s: %v", key, err))
	}
}

func setupLogging(level, format string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
