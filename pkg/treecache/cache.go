// Package treecache keeps the notes, branches and attributes of a note tree
// in memory, loading whatever is missing from a core.Repository on demand.
package treecache

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/dominic-sylvester/trilium/pkg/core"
)

// TreeCache is the single owner of every Note, Branch and Attribute it has
// loaded. It implements core.Store, so notes resolve their relationships
// through it.
type TreeCache struct {
	repo   core.Repository
	logger *slog.Logger

	mu         sync.RWMutex
	notes      map[string]*core.Note
	branches   map[string]*core.Branch
	attributes map[string]*core.Attribute

	group    singleflight.Group
	fetches  atomic.Int64
	lastLoad atomic.Pointer[time.Time]

	memo    *cache.Cache // nil when disabled
	memoGen atomic.Uint64
}

// New creates an empty TreeCache backed by repo.
func New(repo core.Repository, opts ...Option) *TreeCache {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &TreeCache{
		repo:       repo,
		logger:     logger,
		notes:      make(map[string]*core.Note),
		branches:   make(map[string]*core.Branch),
		attributes: make(map[string]*core.Attribute),
	}
	if o.memoTTL > 0 {
		c.memo = cache.New(o.memoTTL, 2*o.memoTTL)
	}
	return c
}

// Logger returns the cache's logger.
func (c *TreeCache) Logger() *slog.Logger { return c.logger }

// Repository returns the repository the cache loads from.
func (c *TreeCache) Repository() core.Repository { return c.repo }

// Attribute looks up a loaded attribute.
func (c *TreeCache) Attribute(id string) (*core.Attribute, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.attributes[id]
	return a, ok
}

// Branch looks up a loaded branch.
func (c *TreeCache) Branch(id string) (*core.Branch, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.branches[id]
	return b, ok
}

// Has reports whether the note is loaded.
func (c *TreeCache) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.notes[id]
	return ok
}

// Note returns the note for id, loading it on a miss.
// It returns nil, nil when the repository does not know the id.
func (c *TreeCache) Note(ctx context.Context, id string) (*core.Note, error) {
	if id == "" {
		return nil, nil
	}
	notes, err := c.Notes(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	return notes[0], nil
}

// Notes returns the notes for ids in one slice aligned with ids. Missing
// notes are loaded with a single repository call; ids that still do not
// resolve leave a nil slot.
func (c *TreeCache) Notes(ctx context.Context, ids []string) ([]*core.Note, error) {
	out := make([]*core.Note, len(ids))
	var missing []string

	c.mu.RLock()
	for i, id := range ids {
		if n, ok := c.notes[id]; ok {
			out[i] = n
		} else if id != "" && !slices.Contains(missing, id) {
			missing = append(missing, id)
		}
	}
	c.mu.RUnlock()

	if len(missing) == 0 {
		return out, nil
	}

	if err := c.fetch(ctx, core.LoadRequest{NoteIDs: missing}); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, id := range ids {
		if out[i] == nil {
			out[i] = c.notes[id]
		}
	}
	return out, nil
}

// Branches returns the branches for ids, loading misses. Ids that do not
// resolve are omitted.
func (c *TreeCache) Branches(ctx context.Context, ids []string) ([]*core.Branch, error) {
	var missing []string
	c.mu.RLock()
	for _, id := range ids {
		if _, ok := c.branches[id]; !ok && id != "" && !slices.Contains(missing, id) {
			missing = append(missing, id)
		}
	}
	c.mu.RUnlock()

	if len(missing) > 0 {
		if err := c.fetch(ctx, core.LoadRequest{BranchIDs: missing}); err != nil {
			return nil, err
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*core.Branch, 0, len(ids))
	for _, id := range ids {
		if b, ok := c.branches[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

// Content fetches a note body from the repository. Bodies are never cached.
func (c *TreeCache) Content(ctx context.Context, noteID string) (string, error) {
	if noteID == "" {
		return "", core.ErrEmptyID
	}
	return c.repo.Content(ctx, noteID)
}

// fetch loads req from the repository. Identical concurrent requests share
// one repository call.
func (c *TreeCache) fetch(ctx context.Context, req core.LoadRequest) error {
	key := "n:" + strings.Join(req.NoteIDs, ",") + "|b:" + strings.Join(req.BranchIDs, ",")

	_, err, shared := c.group.Do(key, func() (any, error) {
		c.fetches.Add(1)
		start := time.Now()

		rows, err := c.repo.Load(ctx, req)
		if err != nil {
			return nil, err
		}
		c.Load(rows)

		c.logger.Debug("tree cache loaded rows",
			"note_ids", len(req.NoteIDs),
			"branch_ids", len(req.BranchIDs),
			"notes", len(rows.Notes),
			"branches", len(rows.Branches),
			"attributes", len(rows.Attributes),
			"duration", time.Since(start))
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to load %d notes and %d branches: %w", len(req.NoteIDs), len(req.BranchIDs), err)
	}
	if shared {
		c.logger.Debug("tree cache joined in-flight load", "key", key)
	}
	return nil
}

// Load merges a repository response into the cache. Known notes are updated
// in place; new ones are created. Branches link notes that are loaded,
// attributes attach to their owner and, for relations, to their target.
func (c *TreeCache) Load(rows core.Rows) {
	c.mu.Lock()
	c.applyLocked(rows)
	c.mu.Unlock()

	now := time.Now()
	c.lastLoad.Store(&now)
	c.InvalidateAttributes()
}

func (c *TreeCache) applyLocked(rows core.Rows) {
	for _, row := range rows.Notes {
		if n, ok := c.notes[row.NoteID]; ok {
			n.Update(row)
		} else {
			c.notes[row.NoteID] = core.NewNote(row)
		}
	}

	// All branches first, so children sort against every new position.
	for _, row := range rows.Branches {
		c.branches[row.BranchID] = core.NewBranch(row)
	}
	lookup := branchMap(c.branches)
	for _, row := range rows.Branches {
		if child, ok := c.notes[row.NoteID]; ok {
			child.AddParent(row.ParentNoteID, row.BranchID)
		}
		if parent, ok := c.notes[row.ParentNoteID]; ok {
			parent.AddChild(row.NoteID, row.BranchID, lookup)
		}
	}

	for _, row := range rows.Attributes {
		a := core.NewAttribute(row)
		c.attributes[a.ID] = a
		if owner, ok := c.notes[a.NoteID]; ok {
			owner.AddAttribute(a.ID)
		}
		if a.Type == core.AttributeRelation {
			if target, ok := c.notes[a.Value]; ok {
				target.AddTargetRelation(a.ID)
			}
		}
	}
}

// Reload refreshes the given notes from the repository. Cached notes keep
// their identity: their fields are overwritten and their owned attributes
// and parent links are rebuilt from the fresh rows. A cached note the
// repository no longer returns is evicted.
func (c *TreeCache) Reload(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	c.fetches.Add(1)
	rows, err := c.repo.Load(ctx, core.LoadRequest{NoteIDs: ids})
	if err != nil {
		return fmt.Errorf("failed to reload notes: %w", err)
	}

	c.mu.Lock()
	for _, id := range ids {
		n, ok := c.notes[id]
		if !ok {
			continue
		}
		if !rows.HasNote(id) {
			c.evictLocked(id)
			continue
		}
		for _, aid := range n.AttributeIDs() {
			c.dropAttributeLocked(aid)
		}
		n.ClearAttributes()
		for _, pid := range n.Parents() {
			if bid, ok := n.ParentBranchID(pid); ok {
				delete(c.branches, bid)
			}
			n.RemoveParent(pid)
			if p, ok := c.notes[pid]; ok {
				p.RemoveChild(id)
			}
		}
	}
	c.applyLocked(rows)
	c.mu.Unlock()

	c.logger.Debug("tree cache reloaded notes", "ids", ids)
	c.InvalidateAttributes()
	return nil
}

// Evict forgets a note together with its owned attributes and its branches.
func (c *TreeCache) Evict(id string) {
	c.mu.Lock()
	c.evictLocked(id)
	c.mu.Unlock()
	c.InvalidateAttributes()
}

func (c *TreeCache) evictLocked(id string) {
	n, ok := c.notes[id]
	if !ok {
		return
	}
	for _, aid := range n.AttributeIDs() {
		c.dropAttributeLocked(aid)
	}
	for _, pid := range n.Parents() {
		if bid, ok := n.ParentBranchID(pid); ok {
			delete(c.branches, bid)
		}
		if p, ok := c.notes[pid]; ok {
			p.RemoveChild(id)
		}
	}
	for _, cid := range n.Children() {
		if bid, ok := n.ChildBranchID(cid); ok {
			delete(c.branches, bid)
		}
		if child, ok := c.notes[cid]; ok {
			child.RemoveParent(id)
		}
	}
	delete(c.notes, id)
}

func (c *TreeCache) dropAttributeLocked(id string) {
	a, ok := c.attributes[id]
	if !ok {
		return
	}
	if a.Type == core.AttributeRelation {
		if target, ok := c.notes[a.Value]; ok {
			target.RemoveTargetRelation(id)
		}
	}
	delete(c.attributes, id)
}

// branchMap resolves branches without taking the cache lock; Load uses it
// while it already holds the lock.
type branchMap map[string]*core.Branch

func (m branchMap) Branch(id string) (*core.Branch, bool) {
	b, ok := m[id]
	return b, ok
}

var _ core.Store = (*TreeCache)(nil)
