package lru

import (
	"slices"
	"strings"

	"github.com/lucasew/mediacache/internal/eviction"
)

// LRU implements the eviction.Strategy interface using Least Recently Used logic.
// Records read longest ago are evicted first; equal access times fall back
// to path order.
type LRU struct{}

func init() {
	eviction.Register("lru", func() eviction.Strategy {
		return New()
	})
}

func New() *LRU {
	return &LRU{}
}

func (l *LRU) Order(records []eviction.FileRecord) {
	slices.SortStableFunc(records, func(a, b eviction.FileRecord) int {
		if c := a.AccessTime.Compare(b.AccessTime); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
}
