package fs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominic-sylvester/trilium/pkg/core"
)

func TestParseNote(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		title   string
		body    string
		wantErr bool
	}{
		{name: "no frontmatter", input: "just text\n", body: "just text\n"},
		{name: "frontmatter", input: "---\ntitle: Hello\n---\n<p>hi</p>", title: "Hello", body: "<p>hi</p>"},
		{name: "crlf", input: "---\r\ntitle: Hello\r\n---\r\nbody", title: "Hello", body: "body"},
		{name: "empty frontmatter", input: "---\n---\nbody", body: "body"},
		{name: "dashes in body", input: "---\ntitle: T\n---\na\n---\nb", title: "T", body: "a\n---\nb"},
		{name: "longer dash line stays yaml", input: "---\ntitle: T\nnote: |\n  ----\n  ---x\n---\nbody", title: "T", body: "body"},
		{name: "closing at end of input", input: "---\ntitle: T\n---", title: "T", body: ""},
		{name: "only dash prefix is not closing", input: "---\ntitle: T\n---x\n", wantErr: true},
		{name: "unterminated", input: "---\ntitle: x\n", wantErr: true},
		{name: "bad yaml", input: "---\ntitle: [\n---\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nf, err := parseNote(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.title, nf.Meta.Title)
			assert.Equal(t, tt.body, nf.Body)
		})
	}
}

func TestNoteFile_EntryDefaults(t *testing.T) {
	nf, err := parseNote(strings.NewReader("hello"))
	require.NoError(t, err)

	e := nf.entry("projects/alpha.md")
	assert.Equal(t, "projects/alpha", e.ID)
	assert.Equal(t, core.NoteRow{
		NoteID:        "projects/alpha",
		Title:         "alpha",
		ContentLength: 5,
		Type:          core.NoteText,
		Mime:          "text/html",
	}, e.Note)
	require.Len(t, e.Branches, 1)
	assert.Equal(t, core.BranchRow{
		BranchID:     "root_projects/alpha",
		NoteID:       "projects/alpha",
		ParentNoteID: core.RootNoteID,
	}, e.Branches[0])
	assert.Empty(t, e.Attributes)
}

func TestNoteFile_EntryFromFrontmatter(t *testing.T) {
	src := `---
id: alpha
title: Alpha
type: code
mime: application/json
protected: true
parents:
  - projects
  - id: archive
    branch: b1
    position: 20
    prefix: old
attributes:
  - name: status
    value: draft
    inheritable: true
  - id: tpl-rel
    type: relation
    name: template
    value: tpl
---
{"a": 1}`

	nf, err := parseNote(strings.NewReader(src))
	require.NoError(t, err)
	e := nf.entry("whatever.md")

	assert.Equal(t, "alpha", e.ID)
	assert.Equal(t, core.NoteCode, e.Note.Type)
	assert.Equal(t, "application/json", e.Note.Mime)
	assert.True(t, e.Note.IsProtected)

	assert.Equal(t, []core.BranchRow{
		{BranchID: "projects_alpha", NoteID: "alpha", ParentNoteID: "projects"},
		{BranchID: "b1", NoteID: "alpha", ParentNoteID: "archive", NotePosition: 20, Prefix: "old"},
	}, e.Branches)

	assert.Equal(t, []core.AttributeRow{
		{AttributeID: "alpha#0", NoteID: "alpha", Type: core.AttributeLabel, Name: "status", Value: "draft", IsInheritable: true, Position: 0},
		{AttributeID: "tpl-rel", NoteID: "alpha", Type: core.AttributeRelation, Name: "template", Value: "tpl", Position: 1},
	}, e.Attributes)
}

func TestNoteFile_RootHasNoDefaultParent(t *testing.T) {
	nf, err := parseNote(strings.NewReader("---\nid: root\n---\n"))
	require.NoError(t, err)
	assert.Empty(t, nf.entry("root.md").Branches)
}
