package core

import (
	"cmp"
	"maps"
	"slices"
	"sync"
)

// NoteType classifies how a note's content is interpreted.
type NoteType string

const (
	NoteText   NoteType = "text"
	NoteCode   NoteType = "code"
	NoteFile   NoteType = "file"
	NoteRender NoteType = "render"
)

// Valid reports whether t is one of the known note types.
func (t NoteType) Valid() bool {
	switch t {
	case NoteText, NoteCode, NoteFile, NoteRender:
		return true
	}
	return false
}

// Note is the central entity of the domain.
//
// A Note references its attributes, branches and neighbours by id only.
// The instances behind those ids belong to a cache and are resolved through
// a Store handed to each call. A Note is created once per cache entry and
// then updated in place; it must not be copied.
type Note struct {
	NoteID        string
	Title         string
	ContentLength int
	IsProtected   bool
	Type          NoteType
	Mime          string
	IsDeleted     bool

	mu              sync.RWMutex
	attributes      []string
	targetRelations []string
	parents         []string
	children        []string
	parentToBranch  map[string]string
	childToBranch   map[string]string
}

// NewNote builds a Note from its raw row.
func NewNote(row NoteRow) *Note {
	n := &Note{
		parentToBranch: make(map[string]string),
		childToBranch:  make(map[string]string),
	}
	n.Update(row)
	return n
}

// Update overwrites the note's own fields. Relationship lists are untouched.
// Fields whose value is unchanged are not written, so NoteID, which never
// changes for a cached note, stays safe to read without the lock.
func (n *Note) Update(row NoteRow) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.NoteID != row.NoteID {
		n.NoteID = row.NoteID
	}
	if n.Title != row.Title {
		n.Title = row.Title
	}
	if n.ContentLength != row.ContentLength {
		n.ContentLength = row.ContentLength
	}
	if n.IsProtected != row.IsProtected {
		n.IsProtected = row.IsProtected
	}
	if n.Type != row.Type {
		n.Type = row.Type
	}
	if n.Mime != row.Mime {
		n.Mime = row.Mime
	}
	if n.IsDeleted != row.IsDeleted {
		n.IsDeleted = row.IsDeleted
	}
}

// ID returns the note id.
func (n *Note) ID() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.NoteID
}

// Deleted reports whether the note is marked deleted.
func (n *Note) Deleted() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.IsDeleted
}

// AttributeIDs returns the ids of the owned attributes, in order.
func (n *Note) AttributeIDs() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.attributes)
}

// TargetRelationIDs returns the ids of relations pointing at this note.
func (n *Note) TargetRelationIDs() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.targetRelations)
}

// Parents returns the parent note ids.
func (n *Note) Parents() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.parents)
}

// Children returns the child note ids ordered by branch position.
func (n *Note) Children() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.children)
}

// ParentBranchID returns the branch placing this note under parentID.
func (n *Note) ParentBranchID(parentID string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	id, ok := n.parentToBranch[parentID]
	return id, ok
}

// ChildBranchID returns the branch placing childID under this note.
func (n *Note) ChildBranchID(childID string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	id, ok := n.childToBranch[childID]
	return id, ok
}

// AddAttribute records an owned attribute id. Existing ids are ignored.
func (n *Note) AddAttribute(attributeID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !slices.Contains(n.attributes, attributeID) {
		n.attributes = append(n.attributes, attributeID)
	}
}

// AddTargetRelation records an incoming relation id. Existing ids are ignored.
func (n *Note) AddTargetRelation(attributeID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !slices.Contains(n.targetRelations, attributeID) {
		n.targetRelations = append(n.targetRelations, attributeID)
	}
}

// ClearAttributes forgets every owned attribute id.
func (n *Note) ClearAttributes() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attributes = nil
}

// RemoveTargetRelation forgets an incoming relation id.
func (n *Note) RemoveTargetRelation(attributeID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targetRelations = slices.DeleteFunc(n.targetRelations, func(id string) bool { return id == attributeID })
}

// AddParent records parentID as a parent reached through branchID.
// A known parent only has its branch mapping overwritten.
func (n *Note) AddParent(parentID, branchID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !slices.Contains(n.parents, parentID) {
		n.parents = append(n.parents, parentID)
	}
	n.parentToBranch[parentID] = branchID
}

// RemoveParent drops parentID and its branch mapping.
func (n *Note) RemoveParent(parentID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.parents = slices.DeleteFunc(n.parents, func(id string) bool { return id == parentID })
	delete(n.parentToBranch, parentID)
}

// AddChild records childID under branchID and re-sorts the children by the
// position of their branches. Siblings sharing a position keep their
// current relative order. A branch that cannot be looked up sorts as 0.
func (n *Note) AddChild(childID, branchID string, branches BranchLookup) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !slices.Contains(n.children, childID) {
		n.children = append(n.children, childID)
	}
	n.childToBranch[childID] = branchID

	position := func(child string) int {
		if b, ok := branches.Branch(n.childToBranch[child]); ok {
			return b.NotePosition
		}
		return 0
	}
	slices.SortStableFunc(n.children, func(a, b string) int {
		return cmp.Compare(position(a), position(b))
	})
}

// RemoveChild drops childID and its branch mapping.
func (n *Note) RemoveChild(childID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.children = slices.DeleteFunc(n.children, func(id string) bool { return id == childID })
	delete(n.childToBranch, childID)
}

// NoteDTO is a detached snapshot of a note, safe to serialize or hand to
// another goroutine.
type NoteDTO struct {
	NoteID          string            `json:"noteId" yaml:"noteId"`
	Title           string            `json:"title" yaml:"title"`
	ContentLength   int               `json:"contentLength" yaml:"contentLength"`
	IsProtected     bool              `json:"isProtected" yaml:"isProtected"`
	Type            NoteType          `json:"type" yaml:"type"`
	Mime            string            `json:"mime" yaml:"mime"`
	IsDeleted       bool              `json:"isDeleted" yaml:"isDeleted"`
	Attributes      []string          `json:"attributes" yaml:"attributes"`
	TargetRelations []string          `json:"targetRelations" yaml:"targetRelations"`
	Parents         []string          `json:"parents" yaml:"parents"`
	Children        []string          `json:"children" yaml:"children"`
	ParentToBranch  map[string]string `json:"parentToBranch" yaml:"parentToBranch"`
	ChildToBranch   map[string]string `json:"childToBranch" yaml:"childToBranch"`
}

// DTO returns a snapshot of the note's fields.
func (n *Note) DTO() NoteDTO {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return NoteDTO{
		NoteID:          n.NoteID,
		Title:           n.Title,
		ContentLength:   n.ContentLength,
		IsProtected:     n.IsProtected,
		Type:            n.Type,
		Mime:            n.Mime,
		IsDeleted:       n.IsDeleted,
		Attributes:      slices.Clone(n.attributes),
		TargetRelations: slices.Clone(n.targetRelations),
		Parents:         slices.Clone(n.parents),
		Children:        slices.Clone(n.children),
		ParentToBranch:  maps.Clone(n.parentToBranch),
		ChildToBranch:   maps.Clone(n.childToBranch),
	}
}

