package core

// AttributeType classifies an attribute.
type AttributeType string

const (
	AttributeLabel              AttributeType = "label"
	AttributeLabelDefinition    AttributeType = "label-definition"
	AttributeRelation           AttributeType = "relation"
	AttributeRelationDefinition AttributeType = "relation-definition"
)

// Valid reports whether t is one of the known attribute types.
func (t AttributeType) Valid() bool {
	switch t {
	case AttributeLabel, AttributeLabelDefinition, AttributeRelation, AttributeRelationDefinition:
		return true
	}
	return false
}

// Attribute is a typed key/value annotation owned by a single note.
// A relation carries the id of another note in Value.
//
// Attributes are immutable once loaded into a cache.
type Attribute struct {
	ID            string        `json:"attributeId" yaml:"id"`
	NoteID        string        `json:"noteId" yaml:"noteId"`
	Type          AttributeType `json:"type" yaml:"type"`
	Name          string        `json:"name" yaml:"name"`
	Value         string        `json:"value" yaml:"value"`
	IsInheritable bool          `json:"isInheritable" yaml:"inheritable"`
	Position      int           `json:"position" yaml:"position"`
}

// NewAttribute builds an Attribute from its raw row.
func NewAttribute(row AttributeRow) *Attribute {
	return &Attribute{
		ID:            row.AttributeID,
		NoteID:        row.NoteID,
		Type:          row.Type,
		Name:          row.Name,
		Value:         row.Value,
		IsInheritable: row.IsInheritable,
		Position:      row.Position,
	}
}

// IsTemplate reports whether a is the relation that imports another note's attributes.
func (a *Attribute) IsTemplate() bool {
	return a.Type == AttributeRelation && a.Name == TemplateRelation
}

// Query narrows a list of attributes. A zero field places no constraint.
type Query struct {
	Type AttributeType
	Name string
}

// Matches reports whether a satisfies every set field of q.
func (q Query) Matches(a *Attribute) bool {
	if q.Type != "" && a.Type != q.Type {
		return false
	}
	if q.Name != "" && a.Name != q.Name {
		return false
	}
	return true
}

// Filter returns the attributes matching q, preserving order.
// The input slice is returned as is when q is empty.
func (q Query) Filter(attrs []*Attribute) []*Attribute {
	if q.Type == "" && q.Name == "" {
		return attrs
	}
	out := make([]*Attribute, 0, len(attrs))
	for _, a := range attrs {
		if q.Matches(a) {
			out = append(out, a)
		}
	}
	return out
}

// Labels is a shorthand for a label query on name.
func Labels(name string) Query { return Query{Type: AttributeLabel, Name: name} }

// Relations is a shorthand for a relation query on name.
func Relations(name string) Query { return Query{Type: AttributeRelation, Name: name} }
