package repository

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lucasew/mediacache/internal/db"
	"github.com/lucasew/mediacache/internal/errutil"
	"github.com/lucasew/mediacache/internal/eviction"
	"github.com/lucasew/mediacache/internal/hashutil"
	"golang.org/x/sync/singleflight"
)

const keyAlgo = "sha256"

// LocalRepository implements a Repository backed by the local filesystem.
//
// It uses a directory structure of {root}/{category}/{hh}/{hash}{ext} where
// hash covers the source and variant. Content is written to a staging
// directory outside the root first, so cleanup never sees partial files.
// Reads refresh the access time that LRU eviction orders by.
type LocalRepository struct {
	Root    string
	Staging string

	index      *db.DB
	classifier Classifier
	now        func() time.Time
	g          singleflight.Group
}

// NewLocalRepository creates a repository rooted at root. An empty staging
// defaults to a hidden sibling of root. index may be nil.
func NewLocalRepository(root, staging string, index *db.DB, classifier Classifier) *LocalRepository {
	if staging == "" {
		staging = DefaultStaging(root)
	}
	if classifier == nil {
		classifier = ExtensionClassifier{}
	}
	return &LocalRepository{
		Root:       root,
		Staging:    staging,
		index:      index,
		classifier: classifier,
		now:        time.Now,
	}
}

// DefaultStaging returns the staging directory used when none is configured.
func DefaultStaging(root string) string {
	root = filepath.Clean(root)
	return filepath.Join(filepath.Dir(root), "."+filepath.Base(root)+".staging")
}

// Path returns where key is stored, with its category and MIME type.
func (r *LocalRepository) Path(key Key) (path, category, mimeType string, err error) {
	if key.Source == "" || key.Name == "" {
		return "", "", "", fmt.Errorf("artifact key needs a source and a name")
	}
	hash, err := hashutil.Key(keyAlgo, key.Source, key.Variant)
	if err != nil {
		return "", "", "", err
	}
	category, mimeType = r.classifier.Classify(key.Name)
	ext := strings.ToLower(filepath.Ext(key.Name))
	return filepath.Join(r.Root, category, hash[:2], hash+ext), category, mimeType, nil
}

func (r *LocalRepository) Exists(ctx context.Context, key Key) (bool, error) {
	path, _, _, err := r.Path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Get opens the artifact and marks it as read.
func (r *LocalRepository) Get(ctx context.Context, key Key) (io.ReadCloser, int64, error) {
	path, _, _, err := r.Path(key)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	errutil.LogMsg(eviction.Touch(path, r.now()), "Failed to refresh access time", "path", path)
	return f, info.Size(), nil
}

// Put stores an artifact in the cache if it doesn't already exist and
// returns its path.
//
// Concurrent puts for the same key share one fetch. The content goes to a
// temporary file in the staging directory and is renamed into place.
func (r *LocalRepository) Put(ctx context.Context, key Key, fetcher Fetcher) (string, error) {
	finalPath, category, mimeType, err := r.Path(key)
	if err != nil {
		return "", err
	}

	_, err, _ = r.g.Do(finalPath, func() (interface{}, error) {
		// Double check existence
		if _, err := os.Stat(finalPath); err == nil {
			return nil, nil
		}

		reader, _, err := fetcher()
		if err != nil {
			return nil, err
		}
		defer func() { _ = reader.Close() }()

		if err := os.MkdirAll(r.Staging, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create staging dir: %w", err)
		}
		tmpFile, err := os.CreateTemp(r.Staging, "put-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp file: %w", err)
		}
		defer func() { _ = os.Remove(tmpFile.Name()) }()
		defer func() { _ = tmpFile.Close() }()

		written, err := io.Copy(tmpFile, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to write to temp file: %w", err)
		}
		if err := tmpFile.Close(); err != nil {
			return nil, fmt.Errorf("failed to close temp file: %w", err)
		}

		if err := r.publish(tmpFile.Name(), finalPath); err != nil {
			return nil, err
		}

		if r.index != nil {
			err := r.index.Insert(ctx, db.Artifact{
				Path:      finalPath,
				Source:    key.Source,
				Variant:   key.Variant,
				Category:  category,
				MIME:      mimeType,
				Size:      written,
				CreatedAt: r.now(),
			})
			errutil.ReportError(err, "Failed to index artifact", "path", finalPath)
		}

		slog.Info("Stored artifact", "source", key.Source, "variant", key.Variant, "path", finalPath, "mime", mimeType, "size", written)
		return nil, nil
	})
	if err != nil {
		return "", err
	}
	return finalPath, nil
}

// publish moves tmp to dst. A cleanup run may prune the freshly created
// parent directory before the rename lands, so the rename is retried.
func (r *LocalRepository) publish(tmp, dst string) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if err = os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("failed to create artifact dir: %w", err)
		}
		if err = os.Rename(tmp, dst); err == nil {
			return nil
		}
		if !os.IsNotExist(err) {
			break
		}
	}
	return fmt.Errorf("failed to rename to final path: %w", err)
}

// GetOrFetch attempts to retrieve the artifact from the cache.
// If it's missing, it uses the provided fetcher to produce and store it,
// then returns the file reader.
func (r *LocalRepository) GetOrFetch(ctx context.Context, key Key, fetcher Fetcher) (io.ReadCloser, int64, error) {
	// 1. Try Local Cache (HIT)
	reader, size, err := r.Get(ctx, key)
	if err == nil {
		return reader, size, nil
	}

	// 2. Cache Miss -> Fetch & Store
	if _, err := r.Put(ctx, key, fetcher); err != nil {
		return nil, 0, err
	}

	// 3. Serve after successful Store
	return r.Get(ctx, key)
}
