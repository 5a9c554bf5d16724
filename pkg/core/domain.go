// Package core holds the note tree domain: notes, branches, attributes and
// the rules by which a note sees attributes from its templates and parents.
package core

import "fmt"

const (
	// RootNoteID identifies the top of the tree. Inheritance stops there.
	RootNoteID = "root"

	// TemplateRelation is the relation name whose target's attributes are
	// imported wholesale.
	TemplateRelation = "template"
)

// EventType represents the type of change in a repository.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a single note.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}
