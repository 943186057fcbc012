package fifo

import (
	"slices"
	"strings"

	"github.com/lucasew/mediacache/internal/eviction"
)

// FIFO evicts the artifacts produced longest ago first, ignoring reads.
type FIFO struct{}

func init() {
	eviction.Register("fifo", func() eviction.Strategy {
		return New()
	})
}

func New() *FIFO {
	return &FIFO{}
}

func (f *FIFO) Order(records []eviction.FileRecord) {
	slices.SortStableFunc(records, func(a, b eviction.FileRecord) int {
		if c := a.ModTime.Compare(b.ModTime); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
}
