//go:build !linux && !darwin

package eviction

import (
	"io/fs"
	"time"
)

// accessTime falls back to the modification time where the platform does
// not expose one through os.FileInfo.
func accessTime(info fs.FileInfo) time.Time {
	return info.ModTime()
}
