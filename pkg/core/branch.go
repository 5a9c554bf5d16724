package core

// Branch places a note under a parent. NotePosition orders siblings.
type Branch struct {
	ID           string `json:"branchId"`
	NoteID       string `json:"noteId"`
	ParentNoteID string `json:"parentNoteId"`
	NotePosition int    `json:"notePosition"`
	Prefix       string `json:"prefix,omitempty"`
}

// NewBranch builds a Branch from its raw row.
func NewBranch(row BranchRow) *Branch {
	return &Branch{
		ID:           row.BranchID,
		NoteID:       row.NoteID,
		ParentNoteID: row.ParentNoteID,
		NotePosition: row.NotePosition,
		Prefix:       row.Prefix,
	}
}
