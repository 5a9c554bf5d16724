package treecache

import (
	"time"

	"github.com/aretw0/introspection"
)

// CacheState exposes internal state for observability.
type CacheState struct {
	Notes          int        `json:"notes"`
	Branches       int        `json:"branches"`
	Attributes     int        `json:"attributes"`
	Fetches        int64      `json:"fetches"`
	MemoEnabled    bool       `json:"memo_enabled"`
	MemoEntries    int        `json:"memo_entries"`
	LastLoad       *time.Time `json:"last_load,omitempty"`
	RepositoryType string     `json:"repository_type"`
}

// State implements introspection.Introspectable.
func (c *TreeCache) State() any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	repoType := "unknown"
	if c.repo != nil {
		repoType = "repository"
		if comp, ok := c.repo.(introspection.Component); ok {
			repoType = comp.ComponentType()
		}
	}

	state := CacheState{
		Notes:          len(c.notes),
		Branches:       len(c.branches),
		Attributes:     len(c.attributes),
		Fetches:        c.fetches.Load(),
		MemoEnabled:    c.memo != nil,
		LastLoad:       c.lastLoad.Load(),
		RepositoryType: repoType,
	}
	if c.memo != nil {
		state.MemoEntries = c.memo.ItemCount()
	}
	return state
}

// ComponentType implements introspection.Component.
func (c *TreeCache) ComponentType() string {
	return "tree-cache"
}

var _ introspection.Introspectable = (*TreeCache)(nil)
var _ introspection.Component = (*TreeCache)(nil)
