package core

// NoteRow is the raw shape of a note as delivered by a Repository.
type NoteRow struct {
	NoteID        string   `json:"noteId"`
	Title         string   `json:"title"`
	ContentLength int      `json:"contentLength"`
	IsProtected   bool     `json:"isProtected"`
	Type          NoteType `json:"type"`
	Mime          string   `json:"mime"`
	IsDeleted     bool     `json:"isDeleted"`
}

// BranchRow is the raw shape of a branch.
type BranchRow struct {
	BranchID     string `json:"branchId"`
	NoteID       string `json:"noteId"`
	ParentNoteID string `json:"parentNoteId"`
	NotePosition int    `json:"notePosition"`
	Prefix       string `json:"prefix,omitempty"`
}

// AttributeRow is the raw shape of an attribute.
type AttributeRow struct {
	AttributeID   string        `json:"attributeId"`
	NoteID        string        `json:"noteId"`
	Type          AttributeType `json:"type"`
	Name          string        `json:"name"`
	Value         string        `json:"value"`
	IsInheritable bool          `json:"isInheritable"`
	Position      int           `json:"position"`
}

// Rows is one load response: every row touching the requested ids.
type Rows struct {
	Notes      []NoteRow      `json:"notes"`
	Branches   []BranchRow    `json:"branches"`
	Attributes []AttributeRow `json:"attributes"`
}

// HasNote reports whether rows contains a note row for id.
func (r Rows) HasNote(id string) bool {
	for _, n := range r.Notes {
		if n.NoteID == id {
			return true
		}
	}
	return false
}

// LoadRequest names the notes and branches a cache is missing.
type LoadRequest struct {
	NoteIDs   []string `json:"noteIds,omitempty"`
	BranchIDs []string `json:"branchIds,omitempty"`
}

// Empty reports whether the request asks for nothing.
func (r LoadRequest) Empty() bool {
	return len(r.NoteIDs) == 0 && len(r.BranchIDs) == 0
}
