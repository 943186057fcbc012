package app

import (
	"path/filepath"
	"time"

	"github.com/lucasew/mediacache/internal/eviction"
)

// Config is the effective configuration of the CLI and janitor.
type Config struct {
	CacheDir         string        `toml:"cache-dir"`
	StagingDir       string        `toml:"staging-dir"`
	IndexPath        string        `toml:"index-db"`
	LockPath         string        `toml:"lock-file"`
	MaxCacheSize     int64         `toml:"max-cache-size"`
	MinFreeSpace     int64         `toml:"min-free-space"`
	TTL              time.Duration `toml:"ttl"`
	EvictionInterval time.Duration `toml:"eviction-interval"`
	EvictionStrategy string        `toml:"eviction-strategy"`
	DryRun           bool          `toml:"dry-run"`
	LogLevel         string        `toml:"log-level"`
	LogFormat        string        `toml:"log-format"`
}

// Policy returns the cleanup policy described by c.
func (c Config) Policy() eviction.CleanupPolicy {
	return eviction.CleanupPolicy{
		Root:         c.CacheDir,
		MaxTotalSize: c.MaxCacheSize,
		TTL:          c.TTL,
		MinFreeBytes: c.MinFreeSpace,
		DryRun:       c.DryRun,
	}
}

// lockPath returns the cleanup lock file. It lives next to the cache root,
// never inside it, so the scanner cannot evict it.
func (c Config) lockPath() string {
	if c.LockPath != "" {
		return c.LockPath
	}
	root := filepath.Clean(c.CacheDir)
	return filepath.Join(filepath.Dir(root), "."+filepath.Base(root)+".lock")
}
