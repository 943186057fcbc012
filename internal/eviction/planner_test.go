package eviction

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lucasew/mediacache/internal/eviction/policy"
	"github.com/lucasew/mediacache/internal/eviction/policy/maxsize"
)

func TestPartitionExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ttl := 24 * time.Hour

	records := []FileRecord{
		{Path: "over", ModTime: now.Add(-ttl - time.Millisecond)},
		{Path: "exact", ModTime: now.Add(-ttl)},
		{Path: "fresh", ModTime: now},
		{Path: "future", ModTime: now.Add(time.Hour)},
	}

	expired, survivors := partitionExpired(records, ttl, now)

	if len(expired) != 1 || expired[0].Path != "over" {
		t.Errorf("expected only 'over' to expire, got %v", expired)
	}
	if len(survivors) != 3 {
		t.Errorf("expected 3 survivors, got %v", survivors)
	}
}

type failingPolicy struct{}

func (failingPolicy) BytesToFree(int64) (int64, error) { return 0, errors.New("statfs failed") }

type fixedPolicy int64

func (f fixedPolicy) BytesToFree(int64) (int64, error) { return int64(f), nil }

func TestTargetSize(t *testing.T) {
	t.Run("Within Budget", func(t *testing.T) {
		got := targetSize(100, []policy.Policy{&maxsize.Policy{MaxBytes: 150}})
		if got != 100 {
			t.Errorf("expected 100, got %d", got)
		}
	})

	t.Run("Largest Demand Wins", func(t *testing.T) {
		got := targetSize(300, []policy.Policy{&maxsize.Policy{MaxBytes: 150}, fixedPolicy(250)})
		if got != 50 {
			t.Errorf("expected 50, got %d", got)
		}
	})

	t.Run("Clamped At Zero", func(t *testing.T) {
		got := targetSize(300, []policy.Policy{fixedPolicy(1000)})
		if got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})

	t.Run("Failing Policy Ignored", func(t *testing.T) {
		got := targetSize(300, []policy.Policy{failingPolicy{}, &maxsize.Policy{MaxBytes: 200}})
		if got != 200 {
			t.Errorf("expected 200, got %d", got)
		}
	})
}

func TestRemoveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if outcome, err := removeFile(os.Remove, path); outcome != Deleted || err != nil {
		t.Errorf("expected Deleted, got %s (%v)", outcome, err)
	}
	if outcome, err := removeFile(os.Remove, path); outcome != Skipped || err != nil {
		t.Errorf("expected Skipped for a missing file, got %s (%v)", outcome, err)
	}

	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(filepath.Join(sub, "child"), 0o755); err != nil {
		t.Fatal(err)
	}
	if outcome, err := removeFile(os.Remove, sub); outcome != Failed || err == nil {
		t.Errorf("expected Failed for a non-empty directory, got %s (%v)", outcome, err)
	}
}

func TestReclaimerRecordsFailuresAndContinues(t *testing.T) {
	dir := t.TempDir()
	var records []FileRecord
	for _, name := range []string{"1", "2", "3", "4"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, make([]byte, 10), 0o644); err != nil {
			t.Fatal(err)
		}
		records = append(records, FileRecord{Path: path, Size: 10})
	}
	denied := errors.New("permission denied")
	failOn := map[string]bool{records[0].Path: true, records[2].Path: true}

	report := &Report{}
	rc := newReclaimer(dir, false, report)
	rc.unlink = func(path string) error {
		if failOn[path] {
			return fmt.Errorf("remove %s: %w", path, denied)
		}
		return os.Remove(path)
	}

	if err := rc.expire(t.Context(), records[:2]); err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	// A failed delete keeps its bytes, so the size pass moves on to the next file.
	remaining, err := rc.evict(t.Context(), records[2:], 20, 10)
	if err != nil {
		t.Fatalf("evict failed: %v", err)
	}

	if remaining != 10 {
		t.Errorf("expected 10 bytes remaining, got %d", remaining)
	}
	if len(report.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", report.Errors)
	}
	if report.Errors[0].Path != records[0].Path || report.Errors[0].Phase != PhaseExpired {
		t.Errorf("unexpected first error: %+v", report.Errors[0])
	}
	if report.Errors[1].Path != records[2].Path || report.Errors[1].Phase != PhaseLRU {
		t.Errorf("unexpected second error: %+v", report.Errors[1])
	}
	if !errors.Is(report.Errors[0], denied) {
		t.Errorf("expected the cause to be kept, got %v", report.Errors[0].Err)
	}
	if len(report.ExpiredPaths) != 1 || report.ExpiredPaths[0] != records[1].Path {
		t.Errorf("expected %s expired, got %v", records[1].Path, report.ExpiredPaths)
	}
	if len(report.LRUPaths) != 1 || report.LRUPaths[0] != records[3].Path {
		t.Errorf("expected %s evicted, got %v", records[3].Path, report.LRUPaths)
	}
	if report.FilesDeleted != 2 || report.BytesFreed != 20 {
		t.Errorf("expected 2 files / 20 bytes, got %d / %d", report.FilesDeleted, report.BytesFreed)
	}
	if _, err := os.Stat(records[0].Path); err != nil {
		t.Errorf("failed file should still exist: %v", err)
	}
}

func TestIsBelow(t *testing.T) {
	root := filepath.FromSlash("/cache/root")
	cases := map[string]bool{
		"/cache/root":          false,
		"/cache/root/a":        true,
		"/cache/root/a/b":      true,
		"/cache":               false,
		"/cache/rootless":      false,
		"/cache/root/../other": false,
		"/elsewhere":           false,
	}
	for p, want := range cases {
		if got := isBelow(root, filepath.FromSlash(p)); got != want {
			t.Errorf("isBelow(%q): expected %v, got %v", p, want, got)
		}
	}
}

func TestEvictStopsAtTarget(t *testing.T) {
	dir := t.TempDir()
	var candidates []FileRecord
	for _, name := range []string{"1", "2", "3", "4"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, make([]byte, 10), 0o644); err != nil {
			t.Fatal(err)
		}
		candidates = append(candidates, FileRecord{Path: path, Size: 10})
	}

	report := &Report{}
	rc := newReclaimer(dir, false, report)
	remaining, err := rc.evict(t.Context(), candidates, 40, 15)
	if err != nil {
		t.Fatalf("evict failed: %v", err)
	}
	if remaining != 10 {
		t.Errorf("expected 10 bytes remaining, got %d", remaining)
	}
	if len(report.LRUPaths) != 3 {
		t.Errorf("expected 3 lru deletions, got %v", report.LRUPaths)
	}
	if _, err := os.Stat(candidates[3].Path); err != nil {
		t.Errorf("last candidate should survive: %v", err)
	}
}
