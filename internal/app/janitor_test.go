package app

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/lucasew/mediacache/internal/eviction"
	"github.com/lucasew/mediacache/internal/repository"
)

func testConfig(t *testing.T) Config {
	base := t.TempDir()
	return Config{
		CacheDir:         filepath.Join(base, "cache"),
		IndexPath:        filepath.Join(base, "index.db"),
		MaxCacheSize:     1 << 20,
		TTL:              24 * time.Hour,
		EvictionInterval: time.Minute,
	}
}

func TestNewManager_UnknownStrategy(t *testing.T) {
	cfg := testConfig(t)
	cfg.EvictionStrategy = "random"
	if _, err := NewManager(cfg); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestNewManager_LockOutsideRoot(t *testing.T) {
	cfg := testConfig(t)
	lock := cfg.lockPath()
	if strings.HasPrefix(lock, filepath.Clean(cfg.CacheDir)+string(filepath.Separator)) {
		t.Errorf("lock %s must not live inside the cache root", lock)
	}
}

func TestNewManager_SkipsWhenLocked(t *testing.T) {
	cfg := testConfig(t)
	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	other := flock.New(cfg.lockPath())
	ok, err := other.TryLock()
	if err != nil || !ok {
		t.Fatalf("failed to take lock: %v", err)
	}
	defer other.Unlock()

	if _, err := mgr.RunCleanup(context.Background()); !errors.Is(err, eviction.ErrBusy) {
		t.Errorf("expected ErrBusy while another holder has the lock, got %v", err)
	}
}

func TestWritePathAndCleanup(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxCacheSize = 8

	repo, cleanup, err := NewRepository(cfg)
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}
	defer cleanup()

	ctx := context.Background()
	var paths []string
	for _, variant := range []string{"480p", "720p"} {
		key := repository.Key{Source: "/media/a.mkv", Variant: variant, Name: "a.mp4"}
		path, err := repo.Put(ctx, key, func() (io.ReadCloser, int64, error) {
			return io.NopCloser(strings.NewReader("123456")), 6, nil
		})
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		paths = append(paths, path)
	}

	// The 480p artifact was read longest ago.
	now := time.Now()
	if err := os.Chtimes(paths[0], now.Add(-time.Hour), now); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(paths[1], now, now); err != nil {
		t.Fatal(err)
	}

	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	report, err := mgr.RunCleanup(ctx)
	if err != nil {
		t.Fatalf("RunCleanup failed: %v", err)
	}
	if len(report.LRUPaths) != 1 || filepath.Base(report.LRUPaths[0]) != filepath.Base(paths[0]) {
		t.Errorf("expected %s to be evicted, got %v", paths[0], report.LRUPaths)
	}

	index, err := OpenIndex(cfg)
	if err != nil {
		t.Fatalf("OpenIndex failed: %v", err)
	}
	defer index.Close()
	removed, err := index.Reconcile(ctx, func(p string) bool {
		_, err := os.Stat(p)
		return err == nil
	})
	if err != nil || removed != 1 {
		t.Errorf("expected 1 stale index entry, got %d (%v)", removed, err)
	}
}
