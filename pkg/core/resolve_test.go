package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominic-sylvester/trilium/pkg/core"
)

func attrIDs(attrs []*core.Attribute) []string {
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = a.ID
	}
	return out
}

func TestOwnedAttributes(t *testing.T) {
	s := newMemStore()
	n := s.addNote("n")
	a1 := s.label("n", "color", "red", false)
	a2 := s.relation("n", "author", "x", false)
	a3 := s.label("n", "color", "blue", true)

	t.Run("All In Insertion Order", func(t *testing.T) {
		assert.Equal(t, []string{a1.ID, a2.ID, a3.ID}, attrIDs(n.OwnedAttributes(s, core.Query{})))
	})

	t.Run("Dangling Ids Are Dropped", func(t *testing.T) {
		n.AddAttribute("gone")
		assert.Equal(t, []string{a1.ID, a2.ID, a3.ID}, attrIDs(n.OwnedAttributes(s, core.Query{})))
	})

	t.Run("Filters By Type And Name", func(t *testing.T) {
		assert.Equal(t, []string{a1.ID, a3.ID}, attrIDs(n.OwnedLabels(s, "color")))
		assert.Equal(t, []string{a2.ID}, attrIDs(n.OwnedRelations(s, "")))
		assert.Empty(t, n.OwnedLabels(s, "author"))
	})

	t.Run("Singular Accessors", func(t *testing.T) {
		assert.Same(t, a1, n.OwnedLabel(s, "color"))
		assert.Nil(t, n.OwnedLabel(s, "missing"))

		v, ok := n.OwnedLabelValue(s, "color")
		assert.True(t, ok)
		assert.Equal(t, "red", v)

		v, ok = n.OwnedRelationValue(s, "missing")
		assert.False(t, ok)
		assert.Empty(t, v)

		assert.True(t, n.HasOwnedRelation(s, "author"))
		assert.False(t, n.HasOwnedLabel(s, "author"))
	})

	t.Run("No Fetch", func(t *testing.T) {
		assert.Zero(t, s.noteCalls)
	})
}

func TestAttributes_NoSourcesEqualsOwned(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.addNote(core.RootNoteID)
	lone := s.addNote("lone")
	s.label("lone", "a", "", true)
	s.label(core.RootNoteID, "r", "", true)

	attrs, err := lone.Attributes(ctx, s, core.Query{})
	require.NoError(t, err)
	assert.Equal(t, attrIDs(lone.OwnedAttributes(s, core.Query{})), attrIDs(attrs))

	// The root does not look at parents even when it has one.
	s.addNote("other")
	s.label("other", "loop", "", true)
	s.notes[core.RootNoteID].AddParent("other", "other_root")

	root := s.notes[core.RootNoteID]
	attrs, err = root.Attributes(ctx, s, core.Query{})
	require.NoError(t, err)
	assert.Equal(t, attrIDs(root.OwnedAttributes(s, core.Query{})), attrIDs(attrs))
}

func TestAttributes_Inheritance(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.addNote(core.RootNoteID)
	s.addNote("a")
	s.addNote("b")
	s.link(core.RootNoteID, "a", 10)
	s.link("a", "b", 10)

	archived := s.label("a", "archived", "", false)
	shared := s.label("a", "shared", "yes", true)

	b := s.notes["b"]

	t.Run("Non Inheritable Stays On Owner", func(t *testing.T) {
		labels, err := b.Labels(ctx, s, "archived")
		require.NoError(t, err)
		assert.Empty(t, labels)

		assert.Len(t, s.notes["a"].OwnedLabels(s, "archived"), 1)
		assert.Same(t, archived, s.notes["a"].OwnedLabels(s, "archived")[0])
	})

	t.Run("Inheritable Reaches Child But Not Owned", func(t *testing.T) {
		labels, err := b.Labels(ctx, s, "shared")
		require.NoError(t, err)
		assert.Equal(t, []string{shared.ID}, attrIDs(labels))
		assert.Empty(t, b.OwnedLabels(s, "shared"))

		v, ok, err := b.LabelValue(ctx, s, "shared")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "yes", v)
	})

	t.Run("Grandchild Keeps Inheriting", func(t *testing.T) {
		s.addNote("c")
		s.link("b", "c", 10)

		has, err := s.notes["c"].HasLabel(ctx, s, "shared")
		require.NoError(t, err)
		assert.True(t, has)

		has, err = s.notes["c"].HasLabel(ctx, s, "archived")
		require.NoError(t, err)
		assert.False(t, has)
	})
}

func TestAttributes_DiamondDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	for _, id := range []string{"top", "left", "right", "bottom"} {
		s.addNote(id)
	}
	s.link("top", "left", 0)
	s.link("top", "right", 0)
	s.link("left", "bottom", 0)
	s.link("right", "bottom", 0)
	l := s.label("top", "tag", "", true)

	labels, err := s.notes["bottom"].Labels(ctx, s, "tag")
	require.NoError(t, err)
	assert.Equal(t, []string{l.ID, l.ID}, attrIDs(labels))
}

func TestAttributes_Template(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.addNote("tpl")
	s.addNote("n")
	style := s.label("tpl", "style", "bold", false)
	rel := s.relation("n", core.TemplateRelation, "tpl", false)

	attrs, err := s.notes["n"].Attributes(ctx, s, core.Labels("style"))
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Same(t, style, attrs[0])
	assert.Equal(t, "tpl", attrs[0].NoteID)

	t.Run("Template Parents Come Along", func(t *testing.T) {
		s.addNote("tplparent")
		s.link("tplparent", "tpl", 0)
		inherited := s.label("tplparent", "from-tpl-parent", "", true)

		attrs, err := s.notes["n"].Attributes(ctx, s, core.Query{})
		require.NoError(t, err)
		assert.Equal(t, []string{rel.ID, style.ID, inherited.ID}, attrIDs(attrs))
	})

	t.Run("Missing Template Is Skipped", func(t *testing.T) {
		s.addNote("m")
		s.relation("m", core.TemplateRelation, "nowhere", false)
		attrs, err := s.notes["m"].Attributes(ctx, s, core.Query{})
		require.NoError(t, err)
		assert.Len(t, attrs, 1)
	})
}

func TestAttributes_ResolutionOrder(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	for _, id := range []string{"p1", "p2", "tpl", "n"} {
		s.addNote(id)
	}
	s.link("p1", "n", 0)
	s.link("p2", "n", 0)
	fromP1 := s.label("p1", "x", "p1", true)
	fromP2 := s.label("p2", "x", "p2", true)
	fromTpl := s.label("tpl", "x", "tpl", false)
	own := s.label("n", "x", "own", false)
	s.relation("n", core.TemplateRelation, "tpl", false)

	labels, err := s.notes["n"].Labels(ctx, s, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{own.ID, fromTpl.ID, fromP1.ID, fromP2.ID}, attrIDs(labels))

	first, err := s.notes["n"].Label(ctx, s, "x")
	require.NoError(t, err)
	assert.Same(t, own, first)
}

func TestAttributes_FilterIsOrderPreservingSubset(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.addNote("p")
	s.addNote("n")
	s.link("p", "n", 0)
	s.label("p", "a", "", true)
	s.relation("p", "a", "p", true)
	s.label("n", "b", "", false)
	s.label("n", "a", "", false)

	all, err := s.notes["n"].Attributes(ctx, s, core.Query{})
	require.NoError(t, err)

	for _, q := range []core.Query{
		{Type: core.AttributeLabel},
		{Name: "a"},
		{Type: core.AttributeLabel, Name: "a"},
		{Type: core.AttributeRelationDefinition},
	} {
		filtered, err := s.notes["n"].Attributes(ctx, s, q)
		require.NoError(t, err)

		var want []string
		for _, a := range all {
			if q.Matches(a) {
				want = append(want, a.ID)
			}
		}
		if want == nil {
			want = []string{}
		}
		assert.Equal(t, want, attrIDs(filtered), "query %+v", q)
	}
}

func TestAttributes_CyclesTerminate(t *testing.T) {
	ctx := context.Background()

	t.Run("Parent Cycle", func(t *testing.T) {
		s := newMemStore()
		s.addNote("a")
		s.addNote("b")
		s.link("a", "b", 0)
		s.link("b", "a", 0)
		la := s.label("a", "la", "", true)
		lb := s.label("b", "lb", "", true)

		attrs, err := s.notes["a"].Attributes(ctx, s, core.Query{})
		require.NoError(t, err)
		assert.Equal(t, []string{la.ID, lb.ID}, attrIDs(attrs))
	})

	t.Run("Template Cycle", func(t *testing.T) {
		s := newMemStore()
		s.addNote("a")
		s.addNote("b")
		ra := s.relation("a", core.TemplateRelation, "b", false)
		rb := s.relation("b", core.TemplateRelation, "a", false)

		attrs, err := s.notes["a"].Attributes(ctx, s, core.Query{})
		require.NoError(t, err)
		assert.Equal(t, []string{ra.ID, rb.ID}, attrIDs(attrs))
	})

	t.Run("Self Template", func(t *testing.T) {
		s := newMemStore()
		s.addNote("a")
		r := s.relation("a", core.TemplateRelation, "a", false)

		attrs, err := s.notes["a"].Attributes(ctx, s, core.Query{})
		require.NoError(t, err)
		assert.Equal(t, []string{r.ID}, attrIDs(attrs))
	})
}

func TestAttributes_FetchErrorPropagates(t *testing.T) {
	s := newMemStore()
	s.addNote("p")
	s.addNote("n")
	s.link("p", "n", 0)
	s.err = errors.New("offline")

	_, err := s.notes["n"].Attributes(context.Background(), s, core.Query{})
	assert.ErrorIs(t, err, s.err)
}

func TestAttributes_CanceledContext(t *testing.T) {
	s := newMemStore()
	s.addNote("n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.notes["n"].Attributes(ctx, s, core.Query{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRelationTargets(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.addNote("n")
	s.addNote("alive")
	deleted := s.addNote("deleted")
	deleted.Update(core.NoteRow{NoteID: "deleted", IsDeleted: true})

	s.relation("n", "link", "alive", false)
	s.relation("n", "link", "missing", false)
	s.relation("n", "dead", "deleted", false)

	t.Run("Holes For Missing Targets", func(t *testing.T) {
		targets, err := s.notes["n"].RelationTargets(ctx, s, "link")
		require.NoError(t, err)
		require.Len(t, targets, 2)
		assert.Same(t, s.notes["alive"], targets[0])
		assert.Nil(t, targets[1])
	})

	t.Run("First Target", func(t *testing.T) {
		target, err := s.notes["n"].RelationTarget(ctx, s, "link")
		require.NoError(t, err)
		assert.Same(t, s.notes["alive"], target)
	})

	t.Run("Missing Relation Is Nil", func(t *testing.T) {
		target, err := s.notes["n"].RelationTarget(ctx, s, "missing")
		require.NoError(t, err)
		assert.Nil(t, target)
	})

	t.Run("Deleted Target Is Nil", func(t *testing.T) {
		targets, err := s.notes["n"].RelationTargets(ctx, s, "dead")
		require.NoError(t, err)
		assert.Equal(t, []*core.Note{nil}, targets)

		target, err := s.notes["n"].RelationTarget(ctx, s, "dead")
		require.NoError(t, err)
		assert.Nil(t, target)
	})

	t.Run("Incoming Relations", func(t *testing.T) {
		incoming := s.notes["alive"].TargetRelations(s)
		require.Len(t, incoming, 1)
		assert.Equal(t, "n", incoming[0].NoteID)
	})
}

func TestNavigation(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.addNote("p")
	s.addNote("c1")
	s.addNote("c2")
	s.link("p", "c1", 20)
	s.link("p", "c2", 10)

	children, err := s.notes["p"].ChildNotes(ctx, s)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "c2", children[0].NoteID)

	branches, err := s.notes["p"].ChildBranches(ctx, s)
	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.Equal(t, 10, branches[0].NotePosition)

	parents, err := s.notes["c1"].ParentNotes(ctx, s)
	require.NoError(t, err)
	require.Len(t, parents, 1)
	assert.Equal(t, "p", parents[0].NoteID)

	pb, err := s.notes["c1"].ParentBranches(ctx, s)
	require.NoError(t, err)
	require.Len(t, pb, 1)
	assert.Equal(t, "p_c1", pb[0].ID)
}
