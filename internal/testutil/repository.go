// Package testutil provides an in-memory core.Repository for tests.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dominic-sylvester/trilium/pkg/core"
)

// Repository is an in-memory core.Repository. It answers Load the way a
// real source does: each requested note comes with its branches in both
// directions, its owned attributes and the relations pointing at it.
type Repository struct {
	mu         sync.Mutex
	notes      map[string]core.NoteRow
	branches   []core.BranchRow
	attributes []core.AttributeRow
	content    map[string]string
	seq        int

	Requests []core.LoadRequest
	Err      error

	// BeforeLoad, when set, runs at the start of every Load, outside the
	// repository lock. Tests use it to hold a load in flight.
	BeforeLoad func(core.LoadRequest)

	events chan core.Event
}

// NewRepository creates an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		notes:   make(map[string]core.NoteRow),
		content: make(map[string]string),
	}
}

// AddNote adds or replaces a note row.
func (r *Repository) AddNote(id, title string) *Repository {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[id] = core.NoteRow{NoteID: id, Title: title, Type: core.NoteText, Mime: "text/html"}
	return r
}

// RemoveNote deletes a note row with its branches and owned attributes.
func (r *Repository) RemoveNote(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.notes, id)
	r.branches = slices.DeleteFunc(r.branches, func(b core.BranchRow) bool {
		return b.NoteID == id || b.ParentNoteID == id
	})
	r.attributes = slices.DeleteFunc(r.attributes, func(a core.AttributeRow) bool { return a.NoteID == id })
}

// Link places child under parent at position. The branch id is parent_child.
func (r *Repository) Link(parent, child string, position int) *Repository {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.branches = append(r.branches, core.BranchRow{
		BranchID:     parent + "_" + child,
		NoteID:       child,
		ParentNoteID: parent,
		NotePosition: position,
	})
	return r
}

// Unlink removes the branch between parent and child.
func (r *Repository) Unlink(parent, child string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.branches = slices.DeleteFunc(r.branches, func(b core.BranchRow) bool {
		return b.ParentNoteID == parent && b.NoteID == child
	})
}

// Attr adds an attribute to owner and returns its id.
func (r *Repository) Attr(owner string, typ core.AttributeType, name, value string, inheritable bool) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	id := fmt.Sprintf("%s#%d", owner, r.seq)
	r.attributes = append(r.attributes, core.AttributeRow{
		AttributeID:   id,
		NoteID:        owner,
		Type:          typ,
		Name:          name,
		Value:         value,
		IsInheritable: inheritable,
		Position:      r.seq,
	})
	return id
}

// RemoveAttr deletes an attribute by id.
func (r *Repository) RemoveAttr(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attributes = slices.DeleteFunc(r.attributes, func(a core.AttributeRow) bool { return a.AttributeID == id })
}

// SetContent sets a note body.
func (r *Repository) SetContent(id, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.content[id] = content
}

// LoadCount returns how many Load calls were made.
func (r *Repository) LoadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Requests)
}

// Emit sends a change event to the watcher, if one is active.
func (r *Repository) Emit(e core.Event) {
	r.mu.Lock()
	events := r.events
	r.mu.Unlock()
	if events != nil {
		events <- e
	}
}

func (r *Repository) Load(ctx context.Context, req core.LoadRequest) (core.Rows, error) {
	if r.BeforeLoad != nil {
		r.BeforeLoad(req)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Requests = append(r.Requests, req)
	if r.Err != nil {
		return core.Rows{}, r.Err
	}

	var rows core.Rows
	noteIDs := slices.Clone(req.NoteIDs)
	for _, bid := range req.BranchIDs {
		for _, b := range r.branches {
			if b.BranchID == bid {
				rows.Branches = append(rows.Branches, b)
				noteIDs = append(noteIDs, b.NoteID)
			}
		}
	}

	for _, id := range noteIDs {
		row, ok := r.notes[id]
		if !ok {
			continue
		}
		rows.Notes = append(rows.Notes, row)
		for _, b := range r.branches {
			if (b.NoteID == id || b.ParentNoteID == id) && !slices.Contains(rows.Branches, b) {
				rows.Branches = append(rows.Branches, b)
			}
		}
		for _, a := range r.attributes {
			owned := a.NoteID == id
			incoming := a.Type == core.AttributeRelation && a.Value == id
			if (owned || incoming) && !slices.Contains(rows.Attributes, a) {
				rows.Attributes = append(rows.Attributes, a)
			}
		}
	}
	return rows, nil
}

func (r *Repository) Content(ctx context.Context, noteID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", r.Err
	}
	c, ok := r.content[noteID]
	if !ok {
		return "", fmt.Errorf("note %q: %w", noteID, core.ErrNotFound)
	}
	return c, nil
}

func (r *Repository) Initialize(ctx context.Context) error { return nil }

// Watch implements core.Watchable. Events are delivered through Emit.
func (r *Repository) Watch(ctx context.Context) (<-chan core.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = make(chan core.Event)
	return r.events, nil
}

var _ core.Repository = (*Repository)(nil)
var _ core.Watchable = (*Repository)(nil)
