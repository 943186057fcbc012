package minfree

import (
	"fmt"
	"log/slog"
)

// Policy triggers eviction when disk free space is below a threshold.
type Policy struct {
	Path         string
	MinFreeBytes int64

	// freeSpace is swapped in tests.
	freeSpace func(path string) (int64, error)
}

func (m *Policy) BytesToFree(currentSize int64) (int64, error) {
	stat := m.freeSpace
	if stat == nil {
		stat = availableBytes
	}
	freeSpace, err := stat(m.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to check disk space: %w", err)
	}

	slog.Debug("Disk space check", "path", m.Path, "free_bytes", freeSpace, "min_required", m.MinFreeBytes)

	if freeSpace < m.MinFreeBytes {
		// May exceed currentSize; the caller clamps the target at zero.
		return m.MinFreeBytes - freeSpace, nil
	}
	return 0, nil
}
