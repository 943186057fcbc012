package eviction

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// CanonicalRoot returns the absolute, symlink-resolved form of root. A root
// that does not exist yet is returned in absolute form only.
func CanonicalRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, nil
	}
	return resolved, nil
}

// Scan walks root and returns every regular file below it.
//
// Entries that cannot be read are left out of the inventory. A missing or
// unreadable root, or one that is not a directory, yields an empty
// inventory. Symbolic links are not
// followed, so cycles cannot occur. The only error returned is the
// context's.
func Scan(ctx context.Context, root string) ([]FileRecord, error) {
	var records []FileRecord

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			slog.Debug("Skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if path == root && !d.IsDir() {
			// A root that is not a directory holds no cache entries.
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			// Vanished between listing and stat.
			return nil
		}
		records = append(records, FileRecord{
			Path:       path,
			Size:       info.Size(),
			AccessTime: accessTime(info),
			ModTime:    info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return records, err
	}
	return records, nil
}

// totalSize sums the sizes of records.
func totalSize(records []FileRecord) int64 {
	var total int64
	for _, r := range records {
		total += r.Size
	}
	return total
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err)
}
