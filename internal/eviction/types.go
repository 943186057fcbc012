package eviction

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPolicy is returned when a CleanupPolicy cannot be applied.
var ErrInvalidPolicy = errors.New("invalid cleanup policy")

// FileRecord is a point-in-time snapshot of one regular file in the cache.
// Records are never mutated after a scan produces them.
type FileRecord struct {
	Path       string
	Size       int64
	AccessTime time.Time
	ModTime    time.Time
}

// CleanupPolicy holds the limits for one cleanup run.
type CleanupPolicy struct {
	// Root is the cache directory. It is never removed.
	Root string
	// MaxTotalSize is the size budget in bytes for files that survive the TTL pass.
	MaxTotalSize int64
	// TTL is the maximum age, measured from the last modification.
	TTL time.Duration
	// MinFreeBytes, when positive, also evicts until the filesystem holding
	// Root has at least this many bytes available.
	MinFreeBytes int64
	// DryRun reports what would be deleted without touching the filesystem.
	DryRun bool
}

// Validate reports policy misuse.
func (p CleanupPolicy) Validate() error {
	switch {
	case p.Root == "":
		return fmt.Errorf("%w: empty cache root", ErrInvalidPolicy)
	case p.MaxTotalSize < 0:
		return fmt.Errorf("%w: negative max size %d", ErrInvalidPolicy, p.MaxTotalSize)
	case p.TTL < 0:
		return fmt.Errorf("%w: negative ttl %s", ErrInvalidPolicy, p.TTL)
	case p.MinFreeBytes < 0:
		return fmt.Errorf("%w: negative min free %d", ErrInvalidPolicy, p.MinFreeBytes)
	}
	return nil
}

// Phase identifies why a file was selected for deletion.
type Phase string

const (
	PhaseExpired Phase = "expired"
	PhaseLRU     Phase = "lru"
)

// Outcome is the result of a single filesystem operation in a cleanup run.
type Outcome int

const (
	// Deleted means the entry was removed by this run.
	Deleted Outcome = iota
	// Skipped means there was nothing to do, e.g. the file was already gone.
	Skipped
	// Failed means the operation was attempted and returned an error.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Deleted:
		return "deleted"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// CleanupError pairs a path with the deletion error it produced.
type CleanupError struct {
	Path  string
	Phase Phase
	Err   error
}

func (e CleanupError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Phase, e.Path, e.Err)
}

func (e CleanupError) Unwrap() error {
	return e.Err
}

// Report is the outcome of one cleanup run. The caller owns it.
type Report struct {
	RunID        string
	Root         string
	DryRun       bool
	Started      time.Time
	Duration     time.Duration
	Scanned      int
	FilesDeleted int
	BytesFreed   int64
	ExpiredPaths []string
	ExpiredBytes int64
	LRUPaths     []string
	LRUBytes     int64
	DirsRemoved  int
	Errors       []CleanupError
}

func (r *Report) record(phase Phase, rec FileRecord) {
	r.FilesDeleted++
	r.BytesFreed += rec.Size
	switch phase {
	case PhaseExpired:
		r.ExpiredPaths = append(r.ExpiredPaths, rec.Path)
		r.ExpiredBytes += rec.Size
	case PhaseLRU:
		r.LRUPaths = append(r.LRUPaths, rec.Path)
		r.LRUBytes += rec.Size
	}
}

// ErrorStrings renders one line per failed deletion.
func (r *Report) ErrorStrings() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Error())
	}
	return out
}

// Strategy orders eviction candidates, first victim first.
type Strategy interface {
	// Order sorts records in place. It must be deterministic for a given input.
	Order(records []FileRecord)
}

// Locker guards a run against overlapping runs in other processes.
// *flock.Flock satisfies it.
type Locker interface {
	TryLock() (bool, error)
	Unlock() error
}
