package repository

import (
	"context"
	"io"
)

// Key identifies a derived artifact: the source it was produced from, the
// variant (e.g. "720p.h264") and the artifact file name, whose extension
// decides its category and MIME type.
type Key struct {
	Source  string
	Variant string
	Name    string
}

// Fetcher produces the artifact content on a cache miss.
type Fetcher func() (io.ReadCloser, int64, error)

type Repository interface {
	Exists(ctx context.Context, key Key) (bool, error)
	Get(ctx context.Context, key Key) (io.ReadCloser, int64, error)
}

type WritableRepository interface {
	Repository
	Put(ctx context.Context, key Key, fetcher Fetcher) (string, error)
}
