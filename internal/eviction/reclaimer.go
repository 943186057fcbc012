package eviction

import (
	"cmp"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// reclaimer applies deletions for one run and records them in the report.
type reclaimer struct {
	root    string
	dryRun  bool
	report  *Report
	emptied map[string]struct{}
	unlink  func(string) error
}

func newReclaimer(root string, dryRun bool, report *Report) *reclaimer {
	return &reclaimer{
		root:    root,
		dryRun:  dryRun,
		report:  report,
		emptied: make(map[string]struct{}),
		unlink:  os.Remove,
	}
}

// removeFile deletes a single file with unlink. A file that is already gone
// is skipped, not failed.
func removeFile(unlink func(string) error, path string) (Outcome, error) {
	err := unlink(path)
	switch {
	case err == nil:
		return Deleted, nil
	case isNotExist(err):
		return Skipped, nil
	default:
		return Failed, err
	}
}

func (rc *reclaimer) remove(phase Phase, rec FileRecord) Outcome {
	if rc.dryRun {
		rc.report.record(phase, rec)
		return Deleted
	}

	outcome, err := removeFile(rc.unlink, rec.Path)
	switch outcome {
	case Deleted:
		rc.report.record(phase, rec)
		rc.emptied[filepath.Dir(rec.Path)] = struct{}{}
		slog.Debug("Evicted file", "phase", phase, "path", rec.Path, "size", rec.Size)
	case Skipped:
		rc.emptied[filepath.Dir(rec.Path)] = struct{}{}
		slog.Debug("File already gone", "phase", phase, "path", rec.Path)
	case Failed:
		rc.report.Errors = append(rc.report.Errors, CleanupError{Path: rec.Path, Phase: phase, Err: err})
		slog.Warn("Failed to remove file", "phase", phase, "path", rec.Path, "error", err)
	}
	return outcome
}

// expire deletes every expired record. It stops early only when ctx is done.
func (rc *reclaimer) expire(ctx context.Context, expired []FileRecord) error {
	for _, rec := range expired {
		if err := ctx.Err(); err != nil {
			return err
		}
		rc.remove(PhaseExpired, rec)
	}
	return nil
}

// evict deletes candidates in order until current is at or below target.
// current only shrinks for files that are actually gone.
func (rc *reclaimer) evict(ctx context.Context, candidates []FileRecord, current, target int64) (int64, error) {
	for _, rec := range candidates {
		if current <= target {
			break
		}
		if err := ctx.Err(); err != nil {
			return current, err
		}
		if rc.remove(PhaseLRU, rec) != Failed {
			current -= rec.Size
		}
	}
	return current, nil
}

// pruneEmptyDirs walks up from every directory that lost a file and removes
// directories left empty, stopping at the first non-empty one. The root is
// never removed.
func (rc *reclaimer) pruneEmptyDirs() int {
	dirs := make([]string, 0, len(rc.emptied))
	for dir := range rc.emptied {
		dirs = append(dirs, dir)
	}
	// Deepest first, so a parent is tried after its children.
	slices.SortFunc(dirs, func(a, b string) int {
		if c := cmp.Compare(depth(b), depth(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	removed := 0
	for _, dir := range dirs {
		for d := dir; isBelow(rc.root, d); d = filepath.Dir(d) {
			if err := os.Remove(d); err != nil {
				if !isNotExist(err) {
					slog.Debug("Stopped pruning directories", "path", d, "error", err)
					break
				}
				continue
			}
			removed++
		}
	}
	return removed
}

func depth(path string) int {
	return strings.Count(path, string(filepath.Separator))
}

// isBelow reports whether path is strictly inside root.
func isBelow(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
