package core_test

import (
	"context"
	"fmt"

	"github.com/dominic-sylvester/trilium/pkg/core"
)

// memStore implements core.Store over plain maps.
type memStore struct {
	notes    map[string]*core.Note
	branches map[string]*core.Branch
	attrs    map[string]*core.Attribute
	content  map[string]string

	noteCalls int
	err       error
}

func newMemStore() *memStore {
	return &memStore{
		notes:    make(map[string]*core.Note),
		branches: make(map[string]*core.Branch),
		attrs:    make(map[string]*core.Attribute),
		content:  make(map[string]string),
	}
}

func (m *memStore) Attribute(id string) (*core.Attribute, bool) {
	a, ok := m.attrs[id]
	return a, ok
}

func (m *memStore) Branch(id string) (*core.Branch, bool) {
	b, ok := m.branches[id]
	return b, ok
}

func (m *memStore) Note(ctx context.Context, id string) (*core.Note, error) {
	m.noteCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.notes[id], nil
}

func (m *memStore) Notes(ctx context.Context, ids []string) ([]*core.Note, error) {
	m.noteCalls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*core.Note, len(ids))
	for i, id := range ids {
		out[i] = m.notes[id]
	}
	return out, nil
}

func (m *memStore) Branches(ctx context.Context, ids []string) ([]*core.Branch, error) {
	var out []*core.Branch
	for _, id := range ids {
		if b, ok := m.branches[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) Content(ctx context.Context, noteID string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	c, ok := m.content[noteID]
	if !ok {
		return "", core.ErrNotFound
	}
	return c, nil
}

func (m *memStore) addNote(id string) *core.Note {
	n := core.NewNote(core.NoteRow{NoteID: id, Title: id, Type: core.NoteText, Mime: "text/html"})
	m.notes[id] = n
	return n
}

func (m *memStore) link(parent, child string, position int) string {
	id := parent + "_" + child
	m.branches[id] = &core.Branch{ID: id, NoteID: child, ParentNoteID: parent, NotePosition: position}
	m.notes[child].AddParent(parent, id)
	m.notes[parent].AddChild(child, id, m)
	return id
}

func (m *memStore) attr(owner string, typ core.AttributeType, name, value string, inheritable bool) *core.Attribute {
	a := &core.Attribute{
		ID:            fmt.Sprintf("%s#%d", owner, len(m.attrs)),
		NoteID:        owner,
		Type:          typ,
		Name:          name,
		Value:         value,
		IsInheritable: inheritable,
	}
	m.attrs[a.ID] = a
	m.notes[owner].AddAttribute(a.ID)
	if typ == core.AttributeRelation {
		if target, ok := m.notes[value]; ok {
			target.AddTargetRelation(a.ID)
		}
	}
	return a
}

func (m *memStore) label(owner, name, value string, inheritable bool) *core.Attribute {
	return m.attr(owner, core.AttributeLabel, name, value, inheritable)
}

func (m *memStore) relation(owner, name, target string, inheritable bool) *core.Attribute {
	return m.attr(owner, core.AttributeRelation, name, target, inheritable)
}

var _ core.Store = (*memStore)(nil)
