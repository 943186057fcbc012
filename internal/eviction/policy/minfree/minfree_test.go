package minfree

import (
	"errors"
	"testing"
)

func TestPolicy(t *testing.T) {
	t.Run("Below Threshold", func(t *testing.T) {
		p := &Policy{Path: "/cache", MinFreeBytes: 1000, freeSpace: func(string) (int64, error) { return 400, nil }}
		got, err := p.BytesToFree(5000)
		if err != nil {
			t.Fatalf("BytesToFree failed: %v", err)
		}
		if got != 600 {
			t.Errorf("expected 600, got %d", got)
		}
	})

	t.Run("Enough Space", func(t *testing.T) {
		p := &Policy{Path: "/cache", MinFreeBytes: 1000, freeSpace: func(string) (int64, error) { return 4000, nil }}
		got, err := p.BytesToFree(5000)
		if err != nil {
			t.Fatalf("BytesToFree failed: %v", err)
		}
		if got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})

	t.Run("Stat Error", func(t *testing.T) {
		p := &Policy{Path: "/cache", MinFreeBytes: 1000, freeSpace: func(string) (int64, error) { return 0, errors.New("boom") }}
		if _, err := p.BytesToFree(5000); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("Real Filesystem", func(t *testing.T) {
		p := &Policy{Path: t.TempDir(), MinFreeBytes: 1}
		if _, err := p.BytesToFree(0); err != nil {
			t.Skipf("statfs unavailable: %v", err)
		}
	})
}
