package eviction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lucasew/mediacache/internal/errutil"
	"github.com/lucasew/mediacache/internal/eviction/policy"
	"github.com/lucasew/mediacache/internal/eviction/policy/maxsize"
	"github.com/lucasew/mediacache/internal/eviction/policy/minfree"
)

// ErrBusy is returned when another run holds the cleanup lock.
var ErrBusy = errors.New("cleanup already in progress")

// DefaultStrategy is the strategy name used when none is given.
const DefaultStrategy = "lru"

// Manager runs cleanups against one cache root.
type Manager struct {
	policy   CleanupPolicy
	policies []policy.Policy
	strategy Strategy
	interval time.Duration
	locker   Locker
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithStrategy sets the order in which size-pass candidates are evicted.
func WithStrategy(s Strategy) Option {
	return func(m *Manager) {
		m.strategy = s
	}
}

// WithInterval sets the period used by Start.
func WithInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.interval = d
	}
}

// WithLocker guards every run with l.
func WithLocker(l Locker) Option {
	return func(m *Manager) {
		m.locker = l
	}
}

// WithClock overrides the time source used for TTL decisions.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager for p. The size budget is always enforced;
// the free space policy is added when p.MinFreeBytes is positive.
func NewManager(p CleanupPolicy, opts ...Option) (*Manager, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	root, err := CanonicalRoot(p.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	if info, err := os.Lstat(root); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("%w: cache root %s is not a directory", ErrInvalidPolicy, root)
	}
	p.Root = root

	m := &Manager{
		policy:   p,
		interval: time.Hour,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.strategy == nil {
		strat, err := GetStrategy(DefaultStrategy)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize eviction strategy: %w", err)
		}
		m.strategy = strat
	}

	m.policies = append(m.policies, &maxsize.Policy{MaxBytes: p.MaxTotalSize})
	if p.MinFreeBytes > 0 {
		m.policies = append(m.policies, &minfree.Policy{Path: root, MinFreeBytes: p.MinFreeBytes})
	}
	return m, nil
}

// Root returns the canonical cache root.
func (m *Manager) Root() string {
	return m.policy.Root
}

// Start runs cleanups every interval until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := m.RunCleanup(ctx)
			switch {
			case errors.Is(err, ErrBusy):
				slog.Info("Skipping cleanup, another run holds the lock", "root", m.policy.Root)
			case errors.Is(err, context.Canceled):
				return
			default:
				errutil.ReportError(err, "Cleanup failed", "root", m.policy.Root)
			}
		}
	}
}

// RunCleanup scans the cache, deletes expired files, then evicts the
// surviving files in strategy order until the policies are satisfied, and
// finally removes directories left empty.
//
// Per-file failures are recorded in the report and never abort the run.
// An error is returned only when the lock is held or ctx is done; in the
// latter case the report covers the work done so far.
func (m *Manager) RunCleanup(ctx context.Context) (*Report, error) {
	begin := time.Now()
	report := &Report{
		RunID:   uuid.NewString(),
		Root:    m.policy.Root,
		DryRun:  m.policy.DryRun,
		Started: m.now(),
	}
	defer func() {
		report.Duration = time.Since(begin)
	}()

	if m.locker != nil {
		ok, err := m.locker.TryLock()
		if err != nil {
			return report, fmt.Errorf("failed to acquire cleanup lock: %w", err)
		}
		if !ok {
			return report, ErrBusy
		}
		defer func() {
			errutil.LogMsg(m.locker.Unlock(), "Failed to release cleanup lock")
		}()
	}

	records, err := Scan(ctx, m.policy.Root)
	report.Scanned = len(records)
	if err != nil {
		return report, err
	}

	expired, survivors := partitionExpired(records, m.policy.TTL, m.now())
	rc := newReclaimer(m.policy.Root, m.policy.DryRun, report)

	if err := rc.expire(ctx, expired); err != nil {
		return report, err
	}

	current := totalSize(survivors)
	target := targetSize(current, m.policies)
	if current > target {
		m.strategy.Order(survivors)
		slog.Info("Evicting files", "run_id", report.RunID, "current_size", current, "to_free", current-target, "target", target)
		remaining, err := rc.evict(ctx, survivors, current, target)
		if err != nil {
			return report, err
		}
		current = remaining
	}

	if !m.policy.DryRun {
		report.DirsRemoved = rc.pruneEmptyDirs()
	}

	slog.Info("Cleanup finished",
		"run_id", report.RunID,
		"root", report.Root,
		"dry_run", report.DryRun,
		"scanned", report.Scanned,
		"deleted", report.FilesDeleted,
		"expired", len(report.ExpiredPaths),
		"lru", len(report.LRUPaths),
		"freed", report.BytesFreed,
		"remaining", current,
		"dirs_removed", report.DirsRemoved,
		"errors", len(report.Errors),
	)
	return report, nil
}

// RunCleanup performs a single cleanup with the default strategy.
func RunCleanup(ctx context.Context, p CleanupPolicy) (*Report, error) {
	m, err := NewManager(p)
	if err != nil {
		return nil, err
	}
	return m.RunCleanup(ctx)
}
