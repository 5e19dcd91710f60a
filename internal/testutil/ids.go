package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates predictable alert identifiers: <prefix>-0001,
// <prefix>-0002, ...
//
// This keeps golden traces byte-identical across runs.
//
// Thread-safety: safe for concurrent use.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix means "alert".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "alert"
	}
	return &SequentialIDs{prefix: prefix}
}

// Next returns the next identifier.
func (g *SequentialIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
