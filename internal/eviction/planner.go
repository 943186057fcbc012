package eviction

import (
	"log/slog"
	"time"

	"github.com/lucasew/mediacache/internal/eviction/policy"
)

// partitionExpired splits records into those older than ttl, measured from
// the last modification, and those that survive into the size pass.
func partitionExpired(records []FileRecord, ttl time.Duration, now time.Time) (expired, survivors []FileRecord) {
	for _, rec := range records {
		if now.Sub(rec.ModTime) > ttl {
			expired = append(expired, rec)
			continue
		}
		survivors = append(survivors, rec)
	}
	return expired, survivors
}

// targetSize returns the size the surviving files must shrink to. The
// largest demand across policies wins; a policy that fails is ignored.
func targetSize(current int64, policies []policy.Policy) int64 {
	var maxToFree int64
	for _, p := range policies {
		toFree, err := p.BytesToFree(current)
		if err != nil {
			slog.Error("Failed to check capacity policy", "error", err)
			continue
		}
		if toFree > maxToFree {
			maxToFree = toFree
		}
	}

	target := current - maxToFree
	if target < 0 {
		target = 0
	}
	return target
}
