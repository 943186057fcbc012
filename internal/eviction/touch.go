package eviction

import (
	"os"
	"time"
)

// Touch marks path as read at t without changing its modification time.
// Reads must not reset the TTL, which is keyed on modification time.
func Touch(path string, t time.Time) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.Chtimes(path, t, info.ModTime())
}
