package treecache

import (
	"context"
	"fmt"
	"slices"

	"github.com/patrickmn/go-cache"

	"github.com/dominic-sylvester/trilium/pkg/core"
)

// ResolvedAttributes resolves the attributes visible on a note, like
// core.Note.Attributes, consulting the attribute memo when it is enabled.
// It returns core.ErrNotFound when the note does not resolve. A result
// computed while the cache changed is returned but not memoized.
func (c *TreeCache) ResolvedAttributes(ctx context.Context, noteID string, q core.Query) ([]*core.Attribute, error) {
	if c.memo != nil {
		if cached, found := c.memo.Get(noteID); found {
			if attrs, ok := cached.([]*core.Attribute); ok {
				return slices.Clone(q.Filter(attrs)), nil
			}
		}
	}

	gen := c.memoGen.Load()
	n, err := c.Note(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("note %q: %w", noteID, core.ErrNotFound)
	}

	attrs, err := n.Attributes(ctx, c, core.Query{})
	if err != nil {
		return nil, err
	}
	c.memoize(noteID, attrs, gen)
	return slices.Clone(q.Filter(attrs)), nil
}

// memoize stores attrs unless an invalidation happened since gen was read.
// The generation is checked again after the write: an invalidation racing
// with Set either flushes after it or is seen here and undone.
func (c *TreeCache) memoize(noteID string, attrs []*core.Attribute, gen uint64) {
	if c.memo == nil || c.memoGen.Load() != gen {
		return
	}
	c.memo.Set(noteID, attrs, cache.DefaultExpiration)
	if c.memoGen.Load() != gen {
		c.memo.Delete(noteID)
	}
}

// InvalidateAttributes drops every memoized resolution. Every mutation of
// the cache calls it; callers that change data behind the cache's back
// should too.
func (c *TreeCache) InvalidateAttributes() {
	if c.memo != nil {
		c.memoGen.Add(1)
		c.memo.Flush()
	}
}
