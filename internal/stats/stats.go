// Package stats computes read-only metrics over a cache directory.
package stats

import (
	"context"
	"math"
	"time"

	"github.com/lucasew/mediacache/internal/eviction"
)

const bytesPerGB = 1 << 30

// FileAge describes one file and how old it was when the snapshot was taken.
type FileAge struct {
	Path    string
	Size    int64
	ModTime time.Time
	Age     time.Duration
}

// Snapshot is an aggregate view of the cache. It is presentational only;
// eviction always works on exact byte counts.
type Snapshot struct {
	Root        string
	TakenAt     time.Time
	TotalFiles  int
	TotalSize   int64
	TotalSizeGB float64
	Oldest      *FileAge
	Newest      *FileAge
}

// Collect scans root and summarizes it. A missing or empty root yields a
// zero snapshot with nil Oldest and Newest.
func Collect(ctx context.Context, root string, now time.Time) (*Snapshot, error) {
	canonical, err := eviction.CanonicalRoot(root)
	if err != nil {
		return nil, err
	}
	records, err := eviction.Scan(ctx, canonical)
	if err != nil {
		return nil, err
	}
	return Summarize(canonical, records, now), nil
}

// Summarize builds a snapshot from an inventory. On equal modification
// times the first record seen wins.
func Summarize(root string, records []eviction.FileRecord, now time.Time) *Snapshot {
	s := &Snapshot{Root: root, TakenAt: now, TotalFiles: len(records)}
	if len(records) == 0 {
		return s
	}

	oldest, newest := records[0], records[0]
	for _, rec := range records {
		s.TotalSize += rec.Size
		if rec.ModTime.Before(oldest.ModTime) {
			oldest = rec
		}
		if rec.ModTime.After(newest.ModTime) {
			newest = rec
		}
	}

	s.TotalSizeGB = RoundGB(s.TotalSize)
	s.Oldest = ageOf(oldest, now)
	s.Newest = ageOf(newest, now)
	return s
}

// RoundGB converts bytes to gigabytes (2^30) rounded to two decimals.
func RoundGB(bytes int64) float64 {
	return math.Round(float64(bytes)/bytesPerGB*100) / 100
}

func ageOf(rec eviction.FileRecord, now time.Time) *FileAge {
	return &FileAge{
		Path:    rec.Path,
		Size:    rec.Size,
		ModTime: rec.ModTime,
		Age:     now.Sub(rec.ModTime),
	}
}
