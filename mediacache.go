// Package mediacache keeps an on-disk cache of derived media artifacts
// within an age limit and a size budget.
//
// A cleanup run scans the cache root, deletes files whose last modification
// is older than the TTL, then deletes the least recently accessed survivors
// until the remaining total fits the size budget, and finally removes
// directories the deletions left empty. The filesystem is the only source
// of truth; nothing is persisted between runs.
package mediacache

import (
	"context"
	"time"

	"github.com/lucasew/mediacache/internal/eviction"
	_ "github.com/lucasew/mediacache/internal/eviction/lru"
	"github.com/lucasew/mediacache/internal/humanfmt"
	"github.com/lucasew/mediacache/internal/stats"
)

type (
	// CleanupPolicy holds the limits for one cleanup run.
	CleanupPolicy = eviction.CleanupPolicy
	// Report is the outcome of one cleanup run.
	Report = eviction.Report
	// CleanupError is a deletion that failed during a run.
	CleanupError = eviction.CleanupError
	// Snapshot is the result of GetCacheStats.
	Snapshot = stats.Snapshot
	// FileAge describes the oldest or newest file in a Snapshot.
	FileAge = stats.FileAge
)

var (
	// ErrInvalidPolicy is returned for negative limits or an empty root.
	ErrInvalidPolicy = eviction.ErrInvalidPolicy
)

// RunCleanup applies policy to its cache root.
//
// Missing roots and per-file failures are not errors: failures are listed
// in the report. An error is returned for an invalid policy or when ctx is
// done, in which case the partial report is still returned.
func RunCleanup(ctx context.Context, policy CleanupPolicy) (*Report, error) {
	return eviction.RunCleanup(ctx, policy)
}

// GetCacheStats summarizes the cache under root without modifying it.
func GetCacheStats(ctx context.Context, root string) (*Snapshot, error) {
	return stats.Collect(ctx, root, time.Now())
}

// FormatBytes renders n with 1024-based units, e.g. "1.50 KB".
func FormatBytes(n int64) string {
	return humanfmt.FormatBytes(n)
}

// FormatDuration renders d with its coarsest unit, e.g. "1 hour, 30 minutes".
func FormatDuration(d time.Duration) string {
	return humanfmt.FormatDuration(d)
}
