package core_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominic-sylvester/trilium/pkg/core"
)

func TestNote_AddChild(t *testing.T) {
	s := newMemStore()
	p := s.addNote("p")
	for _, id := range []string{"a", "b", "c", "d"} {
		s.addNote(id)
	}
	s.link("p", "a", 30)
	s.link("p", "b", 10)
	s.link("p", "c", 20)
	assert.Equal(t, []string{"b", "c", "a"}, p.Children())

	t.Run("Same Child Twice Keeps Length And Updates Branch", func(t *testing.T) {
		s.branches["moved"] = &core.Branch{ID: "moved", NoteID: "a", ParentNoteID: "p", NotePosition: 5}
		p.AddChild("a", "moved", s)

		assert.Equal(t, []string{"a", "b", "c"}, p.Children())
		bid, ok := p.ChildBranchID("a")
		require.True(t, ok)
		assert.Equal(t, "moved", bid)
	})

	t.Run("Equal Positions Keep Current Order", func(t *testing.T) {
		s.link("p", "d", 10)
		assert.Equal(t, []string{"a", "b", "d", "c"}, p.Children())
	})

	t.Run("Unknown Branch Sorts As Zero", func(t *testing.T) {
		s.addNote("e")
		p.AddChild("e", "nowhere", s)
		assert.Equal(t, []string{"e", "a", "b", "d", "c"}, p.Children())
	})

	t.Run("Extreme Positions Do Not Overflow", func(t *testing.T) {
		q := s.addNote("q")
		s.link("q", "a", math.MaxInt)
		s.link("q", "b", -10)
		s.link("q", "c", math.MinInt)
		assert.Equal(t, []string{"c", "b", "a"}, q.Children())
	})

	t.Run("Remove", func(t *testing.T) {
		p.RemoveChild("e")
		assert.NotContains(t, p.Children(), "e")
		_, ok := p.ChildBranchID("e")
		assert.False(t, ok)
	})
}

func TestNote_AddParent(t *testing.T) {
	n := core.NewNote(core.NoteRow{NoteID: "n"})
	n.AddParent("p1", "b1")
	n.AddParent("p2", "b2")
	n.AddParent("p1", "b3")

	assert.Equal(t, []string{"p1", "p2"}, n.Parents())
	bid, ok := n.ParentBranchID("p1")
	require.True(t, ok)
	assert.Equal(t, "b3", bid)

	n.RemoveParent("p1")
	assert.Equal(t, []string{"p2"}, n.Parents())
}

func TestNote_UpdateKeepsRelationships(t *testing.T) {
	n := core.NewNote(core.NoteRow{NoteID: "n", Title: "old", Type: core.NoteText})
	n.AddAttribute("a1")
	n.AddAttribute("a1")
	n.AddParent("p", "b")

	n.Update(core.NoteRow{NoteID: "n", Title: "new", Type: core.NoteCode, Mime: "application/json"})

	assert.Equal(t, "new", n.Title)
	assert.Equal(t, core.NoteCode, n.Type)
	assert.Equal(t, []string{"a1"}, n.AttributeIDs())
	assert.Equal(t, []string{"p"}, n.Parents())
}

func TestNote_DTO(t *testing.T) {
	s := newMemStore()
	s.addNote("p")
	n := s.addNote("n")
	s.addNote("c")
	n.Update(core.NoteRow{NoteID: "n", Title: "Title", ContentLength: 42, IsProtected: true, Type: core.NoteRender, Mime: "text/html"})
	s.link("p", "n", 0)
	s.link("n", "c", 0)
	s.label("n", "x", "", false)

	dto := n.DTO()
	assert.Equal(t, n.NoteID, dto.NoteID)
	assert.Equal(t, n.Title, dto.Title)
	assert.Equal(t, n.ContentLength, dto.ContentLength)
	assert.Equal(t, n.IsProtected, dto.IsProtected)
	assert.Equal(t, n.Type, dto.Type)
	assert.Equal(t, n.Mime, dto.Mime)
	assert.Equal(t, n.IsDeleted, dto.IsDeleted)
	assert.Equal(t, n.AttributeIDs(), dto.Attributes)
	assert.Equal(t, n.Parents(), dto.Parents)
	assert.Equal(t, n.Children(), dto.Children)
	assert.Equal(t, map[string]string{"p": "p_n"}, dto.ParentToBranch)
	assert.Equal(t, map[string]string{"c": "n_c"}, dto.ChildToBranch)

	data, err := json.Marshal(dto)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.NotContains(t, fields, "treeCache")
	assert.Equal(t, "n", fields["noteId"])

	// The snapshot does not follow later changes.
	n.AddAttribute("later")
	assert.NotContains(t, dto.Attributes, "later")
}

func TestNote_Content(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	n := s.addNote("n")

	t.Run("Fetches Every Time", func(t *testing.T) {
		s.content["n"] = "v1"
		c, err := n.Content(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, "v1", c)

		s.content["n"] = "v2"
		c, err = n.Content(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, "v2", c)
	})

	t.Run("JSON", func(t *testing.T) {
		s.content["n"] = `{"columns": ["a", "b"], "count": 2}`
		v, err := n.JSONContent(ctx, s)
		require.NoError(t, err)
		m, ok := v.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(2), m["count"])
	})

	t.Run("Malformed JSON Is Nil", func(t *testing.T) {
		s.content["n"] = "<p>not json</p>"
		v, err := n.JSONContent(ctx, s)
		assert.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("Fetch Error Propagates", func(t *testing.T) {
		s.err = errors.New("offline")
		defer func() { s.err = nil }()
		_, err := n.JSONContent(ctx, s)
		assert.ErrorIs(t, err, s.err)
	})

	t.Run("Missing Content", func(t *testing.T) {
		_, err := s.addNote("empty").Content(ctx, s)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestQuery(t *testing.T) {
	a := &core.Attribute{Type: core.AttributeLabel, Name: "x"}
	assert.True(t, core.Query{}.Matches(a))
	assert.True(t, core.Labels("x").Matches(a))
	assert.True(t, core.Labels("").Matches(a))
	assert.False(t, core.Relations("x").Matches(a))
	assert.False(t, core.Query{Name: "y"}.Matches(a))

	assert.True(t, core.AttributeRelationDefinition.Valid())
	assert.False(t, core.AttributeType("tag").Valid())
	assert.True(t, core.NoteRender.Valid())
	assert.False(t, core.NoteType("canvas").Valid())
}
