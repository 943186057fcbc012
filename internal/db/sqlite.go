package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB is the artifact index. It records what the write path stored; cleanup
// never reads it.
type DB struct {
	db *sql.DB
}

// Artifact is one indexed cache entry.
type Artifact struct {
	Path      string
	Source    string
	Variant   string
	Category  string
	MIME      string
	Size      int64
	CreatedAt time.Time
}

// Open opens the index at path and applies pending migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Insert records a, replacing any previous entry for the same path or the
// same source and variant.
func (d *DB) Insert(ctx context.Context, a Artifact) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM artifacts WHERE source = ? AND variant = ?", a.Source, a.Variant); err != nil {
		return fmt.Errorf("failed to replace %s: %w", a.Path, err)
	}
	_, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO artifacts (path, source, variant, category, mime, size, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		a.Path, a.Source, a.Variant, a.Category, a.MIME, a.Size, a.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", a.Path, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Lookup finds the artifact derived from source with the given variant.
func (d *DB) Lookup(ctx context.Context, source, variant string) (Artifact, bool, error) {
	row := d.db.QueryRowContext(ctx,
		"SELECT path, source, variant, category, mime, size, created_at FROM artifacts WHERE source = ? AND variant = ?",
		source, variant,
	)
	a, err := scanArtifact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Artifact{}, false, nil
		}
		return Artifact{}, false, fmt.Errorf("failed to look up %s (%s): %w", source, variant, err)
	}
	return a, true, nil
}

// List returns every indexed artifact ordered by path.
func (d *DB) List(ctx context.Context) ([]Artifact, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT path, source, variant, category, mime, size, created_at FROM artifacts ORDER BY path",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete removes the entry for path. Deleting a missing entry is not an error.
func (d *DB) Delete(ctx context.Context, path string) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM artifacts WHERE path = ?", path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// Reconcile drops entries whose file no longer exists according to exists
// and returns how many were dropped.
func (d *DB) Reconcile(ctx context.Context, exists func(path string) bool) (int, error) {
	artifacts, err := d.List(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, a := range artifacts {
		if exists(a.Path) {
			continue
		}
		if err := d.Delete(ctx, a.Path); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (Artifact, error) {
	var a Artifact
	var created int64
	if err := row.Scan(&a.Path, &a.Source, &a.Variant, &a.Category, &a.MIME, &a.Size, &created); err != nil {
		return Artifact{}, err
	}
	a.CreatedAt = time.UnixMilli(created)
	return a, nil
}
