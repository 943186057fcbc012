package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/lucasew/mediacache/internal/db"
	"github.com/lucasew/mediacache/internal/errutil"
	"github.com/lucasew/mediacache/internal/eviction"
	_ "github.com/lucasew/mediacache/internal/eviction/fifo"
	_ "github.com/lucasew/mediacache/internal/eviction/lru"
	"github.com/lucasew/mediacache/internal/repository"
)

// NewManager builds an eviction manager from cfg, guarded by a file lock so
// that runs from different processes never overlap.
func NewManager(cfg Config) (*eviction.Manager, error) {
	name := cfg.EvictionStrategy
	if name == "" {
		name = eviction.DefaultStrategy
	}
	strat, err := eviction.GetStrategy(name)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize eviction strategy: %w", err)
	}

	lockPath := cfg.lockPath()
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock dir: %w", err)
	}

	opts := []eviction.Option{
		eviction.WithStrategy(strat),
		eviction.WithLocker(flock.New(lockPath)),
	}
	if cfg.EvictionInterval > 0 {
		opts = append(opts, eviction.WithInterval(cfg.EvictionInterval))
	}

	mgr, err := eviction.NewManager(cfg.Policy(), opts...)
	if err != nil {
		return nil, err
	}

	slog.Debug("Eviction manager ready",
		"root", mgr.Root(),
		"strategy", name,
		"max_size", cfg.MaxCacheSize,
		"min_free", cfg.MinFreeSpace,
		"ttl", cfg.TTL,
		"lock", lockPath,
	)
	return mgr, nil
}

// NewRepository opens the artifact index and returns the write path for the
// cache. The returned cleanup func closes the index.
func NewRepository(cfg Config) (*repository.LocalRepository, func(), error) {
	var index *db.DB
	if cfg.IndexPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.IndexPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create index dir: %w", err)
		}
		var err error
		index, err = db.Open(cfg.IndexPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database at %s: %w", cfg.IndexPath, err)
		}
	}

	repo := repository.NewLocalRepository(cfg.CacheDir, cfg.StagingDir, index, repository.ExtensionClassifier{})

	cleanup := func() {
		if index != nil {
			errutil.Close(index, "Failed to close index")
		}
	}
	return repo, cleanup, nil
}

// OpenIndex opens the artifact index named by cfg.
func OpenIndex(cfg Config) (*db.DB, error) {
	if cfg.IndexPath == "" {
		return nil, fmt.Errorf("no index database configured")
	}
	return db.Open(cfg.IndexPath)
}
