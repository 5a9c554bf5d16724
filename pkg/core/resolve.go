package core

import "context"

// OwnedAttributes returns the attributes attached directly to n that match q,
// in the order they were added. Ids the lookup no longer knows are skipped.
func (n *Note) OwnedAttributes(lookup AttributeLookup, q Query) []*Attribute {
	ids := n.AttributeIDs()
	out := make([]*Attribute, 0, len(ids))
	for _, id := range ids {
		a, ok := lookup.Attribute(id)
		if !ok || !q.Matches(a) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Attributes returns every attribute visible on n that matches q.
//
// The result is, in order: the owned attributes; for each owned "template"
// relation, all attributes of its target note; then, unless n is the root,
// the inheritable attributes of each parent. Template and parent attributes
// are resolved recursively. The only error is a failed fetch from s.
func (n *Note) Attributes(ctx context.Context, s Store, q Query) ([]*Attribute, error) {
	attrs, err := n.resolve(ctx, s, make(map[string]struct{}))
	if err != nil {
		return nil, err
	}
	return q.Filter(attrs), nil
}

// InheritableAttributes returns the attributes n passes on to its children.
func (n *Note) InheritableAttributes(ctx context.Context, s Store) ([]*Attribute, error) {
	return n.inheritable(ctx, s, make(map[string]struct{}))
}

func (n *Note) inheritable(ctx context.Context, s Store, path map[string]struct{}) ([]*Attribute, error) {
	attrs, err := n.resolve(ctx, s, path)
	if err != nil {
		return nil, err
	}
	out := attrs[:0:0]
	for _, a := range attrs {
		if a.IsInheritable {
			out = append(out, a)
		}
	}
	return out, nil
}

// resolve walks owned, template and parent attributes. path holds the notes
// on the current recursion stack; a note met again on its own path adds
// nothing, which ends cycles while diamonds still contribute once per path.
func (n *Note) resolve(ctx context.Context, s Store, path map[string]struct{}) ([]*Attribute, error) {
	id := n.ID()
	if _, seen := path[id]; seen {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path[id] = struct{}{}
	defer delete(path, id)

	owned := n.OwnedAttributes(s, Query{})
	result := append([]*Attribute(nil), owned...)

	var templateIDs []string
	for _, a := range owned {
		if a.IsTemplate() {
			templateIDs = append(templateIDs, a.Value)
		}
	}
	var parentIDs []string
	if id != RootNoteID {
		parentIDs = n.Parents()
	}
	if len(templateIDs) == 0 && len(parentIDs) == 0 {
		return result, nil
	}

	// One batched fetch for everything this level needs.
	related, err := s.Notes(ctx, append(templateIDs, parentIDs...))
	if err != nil {
		return nil, err
	}
	templates, parents := related[:len(templateIDs)], related[len(templateIDs):]

	for _, t := range templates {
		if t == nil {
			continue
		}
		attrs, err := t.resolve(ctx, s, path)
		if err != nil {
			return nil, err
		}
		result = append(result, attrs...)
	}

	for _, p := range parents {
		if p == nil {
			continue
		}
		attrs, err := p.inheritable(ctx, s, path)
		if err != nil {
			return nil, err
		}
		result = append(result, attrs...)
	}

	return result, nil
}

// RelationTargets resolves the value of each relation named name (any
// relation when name is empty) to a note. The result has one slot per
// relation; a target that is missing or deleted leaves a nil slot.
func (n *Note) RelationTargets(ctx context.Context, s Store, name string) ([]*Note, error) {
	relations, err := n.Attributes(ctx, s, Relations(name))
	if err != nil {
		return nil, err
	}
	if len(relations) == 0 {
		return nil, nil
	}
	ids := make([]string, len(relations))
	for i, r := range relations {
		ids[i] = r.Value
	}
	targets, err := s.Notes(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i, t := range targets {
		if t != nil && t.Deleted() {
			targets[i] = nil
		}
	}
	return targets, nil
}

// RelationTarget returns the first relation target, or nil.
func (n *Note) RelationTarget(ctx context.Context, s Store, name string) (*Note, error) {
	targets, err := n.RelationTargets(ctx, s, name)
	if err != nil || len(targets) == 0 {
		return nil, err
	}
	return targets[0], nil
}

// TargetRelations returns the relations of other notes that point at n.
func (n *Note) TargetRelations(lookup AttributeLookup) []*Attribute {
	ids := n.TargetRelationIDs()
	out := make([]*Attribute, 0, len(ids))
	for _, id := range ids {
		if a, ok := lookup.Attribute(id); ok {
			out = append(out, a)
		}
	}
	return out
}

// ParentNotes returns the parent notes that still resolve.
func (n *Note) ParentNotes(ctx context.Context, s Store) ([]*Note, error) {
	return resolvedNotes(ctx, s, n.Parents())
}

// ChildNotes returns the child notes that still resolve, in branch order.
func (n *Note) ChildNotes(ctx context.Context, s Store) ([]*Note, error) {
	return resolvedNotes(ctx, s, n.Children())
}

// ParentBranches returns the branches placing n under each parent.
func (n *Note) ParentBranches(ctx context.Context, s Store) ([]*Branch, error) {
	parents := n.Parents()
	ids := make([]string, 0, len(parents))
	for _, p := range parents {
		if id, ok := n.ParentBranchID(p); ok {
			ids = append(ids, id)
		}
	}
	return s.Branches(ctx, ids)
}

// ChildBranches returns the branches under n, in child order.
func (n *Note) ChildBranches(ctx context.Context, s Store) ([]*Branch, error) {
	children := n.Children()
	ids := make([]string, 0, len(children))
	for _, c := range children {
		if id, ok := n.ChildBranchID(c); ok {
			ids = append(ids, id)
		}
	}
	return s.Branches(ctx, ids)
}

func resolvedNotes(ctx context.Context, s Store, ids []string) ([]*Note, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	notes, err := s.Notes(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := notes[:0]
	for _, n := range notes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out, nil
}
