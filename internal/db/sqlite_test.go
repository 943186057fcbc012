package db

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")

	// Initialize DB
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()

	ctx := t.Context()
	created := time.UnixMilli(time.Now().UnixMilli())

	a := Artifact{
		Path:      "/cache/video/ab/abcd.mp4",
		Source:    "/media/movie.mkv",
		Variant:   "720p",
		Category:  "video",
		MIME:      "video/mp4",
		Size:      1234,
		CreatedAt: created,
	}
	if err := db.Insert(ctx, a); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	// Test Lookup
	got, found, err := db.Lookup(ctx, "/media/movie.mkv", "720p")
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if !found {
		t.Fatal("Expected to find /media/movie.mkv 720p")
	}
	if got.Path != a.Path || got.MIME != "video/mp4" || got.Size != 1234 {
		t.Errorf("Unexpected artifact %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("Expected created_at %s, got %s", created, got.CreatedAt)
	}

	// Test Lookup not found
	_, found, err = db.Lookup(ctx, "/media/movie.mkv", "1080p")
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if found {
		t.Error("Expected not to find 1080p variant")
	}

	// Re-inserting the same source/variant under a new path replaces it.
	a.Path = "/cache/video/ab/abcd.webm"
	if err := db.Insert(ctx, a); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	all, err := db.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(all) != 1 || all[0].Path != a.Path {
		t.Errorf("Expected a single replaced entry, got %+v", all)
	}
}

func TestDB_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := db.Insert(t.Context(), Artifact{Path: "p", Source: "s", Variant: "v", Category: "other", MIME: "application/octet-stream"}); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	db.Close()

	// Migrations are already applied; reopening must not fail.
	db, err = Open(dbPath)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer db.Close()

	if _, found, _ := db.Lookup(t.Context(), "s", "v"); !found {
		t.Error("Expected entry to survive reopen")
	}
}

func TestDB_Reconcile(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()

	ctx := t.Context()
	present := filepath.Join(dir, "present.mp4")
	if err := os.WriteFile(present, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i, p := range []string{present, filepath.Join(dir, "evicted.mp4")} {
		if err := db.Insert(ctx, Artifact{Path: p, Source: p, Variant: string(rune('a' + i)), Category: "video", MIME: "video/mp4"}); err != nil {
			t.Fatalf("Insert() failed: %v", err)
		}
	}

	removed, err := db.Reconcile(ctx, func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	})
	if err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 stale entry removed, got %d", removed)
	}

	all, _ := db.List(ctx)
	if len(all) != 1 || all[0].Path != present {
		t.Errorf("Expected only %s to remain, got %+v", present, all)
	}
}
