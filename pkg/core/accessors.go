package core

import "context"

// Owned accessors. These never fetch and never inherit.

func (n *Note) OwnedLabels(lookup AttributeLookup, name string) []*Attribute {
	return n.OwnedAttributes(lookup, Query{Type: AttributeLabel, Name: name})
}

func (n *Note) OwnedRelations(lookup AttributeLookup, name string) []*Attribute {
	return n.OwnedAttributes(lookup, Query{Type: AttributeRelation, Name: name})
}

func (n *Note) OwnedLabelDefinitions(lookup AttributeLookup, name string) []*Attribute {
	return n.OwnedAttributes(lookup, Query{Type: AttributeLabelDefinition, Name: name})
}

func (n *Note) OwnedRelationDefinitions(lookup AttributeLookup, name string) []*Attribute {
	return n.OwnedAttributes(lookup, Query{Type: AttributeRelationDefinition, Name: name})
}

// OwnedAttribute returns the first owned attribute of the given type and name, or nil.
func (n *Note) OwnedAttribute(lookup AttributeLookup, typ AttributeType, name string) *Attribute {
	return first(n.OwnedAttributes(lookup, Query{Type: typ, Name: name}))
}

func (n *Note) OwnedLabel(lookup AttributeLookup, name string) *Attribute {
	return n.OwnedAttribute(lookup, AttributeLabel, name)
}

func (n *Note) OwnedRelation(lookup AttributeLookup, name string) *Attribute {
	return n.OwnedAttribute(lookup, AttributeRelation, name)
}

// OwnedLabelValue returns the value of the first owned label named name.
// ok is false when there is no such label; an empty value is still ok.
func (n *Note) OwnedLabelValue(lookup AttributeLookup, name string) (value string, ok bool) {
	return valueOf(n.OwnedLabel(lookup, name))
}

func (n *Note) OwnedRelationValue(lookup AttributeLookup, name string) (value string, ok bool) {
	return valueOf(n.OwnedRelation(lookup, name))
}

func (n *Note) HasOwnedAttribute(lookup AttributeLookup, typ AttributeType, name string) bool {
	return n.OwnedAttribute(lookup, typ, name) != nil
}

func (n *Note) HasOwnedLabel(lookup AttributeLookup, name string) bool {
	return n.HasOwnedAttribute(lookup, AttributeLabel, name)
}

func (n *Note) HasOwnedRelation(lookup AttributeLookup, name string) bool {
	return n.HasOwnedAttribute(lookup, AttributeRelation, name)
}

// Inherited accessors. These resolve templates and parents and may fetch.

func (n *Note) Labels(ctx context.Context, s Store, name string) ([]*Attribute, error) {
	return n.Attributes(ctx, s, Query{Type: AttributeLabel, Name: name})
}

func (n *Note) Relations(ctx context.Context, s Store, name string) ([]*Attribute, error) {
	return n.Attributes(ctx, s, Query{Type: AttributeRelation, Name: name})
}

func (n *Note) LabelDefinitions(ctx context.Context, s Store, name string) ([]*Attribute, error) {
	return n.Attributes(ctx, s, Query{Type: AttributeLabelDefinition, Name: name})
}

func (n *Note) RelationDefinitions(ctx context.Context, s Store, name string) ([]*Attribute, error) {
	return n.Attributes(ctx, s, Query{Type: AttributeRelationDefinition, Name: name})
}

// Attribute returns the first visible attribute of the given type and name,
// in resolution order, or nil.
func (n *Note) Attribute(ctx context.Context, s Store, typ AttributeType, name string) (*Attribute, error) {
	attrs, err := n.Attributes(ctx, s, Query{Type: typ, Name: name})
	if err != nil {
		return nil, err
	}
	return first(attrs), nil
}

func (n *Note) Label(ctx context.Context, s Store, name string) (*Attribute, error) {
	return n.Attribute(ctx, s, AttributeLabel, name)
}

func (n *Note) Relation(ctx context.Context, s Store, name string) (*Attribute, error) {
	return n.Attribute(ctx, s, AttributeRelation, name)
}

// LabelValue returns the value of the first visible label named name.
func (n *Note) LabelValue(ctx context.Context, s Store, name string) (value string, ok bool, err error) {
	a, err := n.Label(ctx, s, name)
	if err != nil {
		return "", false, err
	}
	value, ok = valueOf(a)
	return value, ok, nil
}

func (n *Note) RelationValue(ctx context.Context, s Store, name string) (value string, ok bool, err error) {
	a, err := n.Relation(ctx, s, name)
	if err != nil {
		return "", false, err
	}
	value, ok = valueOf(a)
	return value, ok, nil
}

func (n *Note) HasAttribute(ctx context.Context, s Store, typ AttributeType, name string) (bool, error) {
	a, err := n.Attribute(ctx, s, typ, name)
	return a != nil, err
}

func (n *Note) HasLabel(ctx context.Context, s Store, name string) (bool, error) {
	return n.HasAttribute(ctx, s, AttributeLabel, name)
}

func (n *Note) HasRelation(ctx context.Context, s Store, name string) (bool, error) {
	return n.HasAttribute(ctx, s, AttributeRelation, name)
}

func first(attrs []*Attribute) *Attribute {
	if len(attrs) == 0 {
		return nil
	}
	return attrs[0]
}

func valueOf(a *Attribute) (string, bool) {
	if a == nil {
		return "", false
	}
	return a.Value, true
}
