package fs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dominic-sylvester/trilium/pkg/core"
)

// frontmatter is the YAML header of a note file.
type frontmatter struct {
	ID         string         `yaml:"id"`
	Title      string         `yaml:"title"`
	Type       core.NoteType  `yaml:"type"`
	Mime       string         `yaml:"mime"`
	Protected  bool           `yaml:"protected"`
	Deleted    bool           `yaml:"deleted"`
	Parents    []parentRef    `yaml:"parents"`
	Attributes []attributeRef `yaml:"attributes"`
}

// parentRef places a note under a parent. In YAML it is either a mapping or
// just the parent id.
type parentRef struct {
	ID       string `yaml:"id" json:"id"`
	Branch   string `yaml:"branch" json:"branch,omitempty"`
	Position int    `yaml:"position" json:"position,omitempty"`
	Prefix   string `yaml:"prefix" json:"prefix,omitempty"`
}

func (p *parentRef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		p.ID = value.Value
		return nil
	}
	type plain parentRef
	return value.Decode((*plain)(p))
}

type attributeRef struct {
	ID          string             `yaml:"id"`
	Type        core.AttributeType `yaml:"type"`
	Name        string             `yaml:"name"`
	Value       string             `yaml:"value"`
	Inheritable bool               `yaml:"inheritable"`
}

// noteFile is a parsed note file.
type noteFile struct {
	Meta frontmatter
	Body string
}

// parseNote splits a Markdown file into frontmatter and body. A file with no
// frontmatter is all body.
func parseNote(r io.Reader) (*noteFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	nf := &noteFile{}
	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		nf.Body = string(data)
		return nf, nil
	}

	open := len("---\n")
	if data[3] == '\r' {
		open = len("---\r\n")
	}
	meta, body, ok := splitFrontmatter(data[open:])
	if !ok {
		return nil, errors.New("frontmatter started but no closing delimiter found")
	}

	if err := yaml.Unmarshal(meta, &nf.Meta); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	nf.Body = string(body)
	return nf, nil
}

// splitFrontmatter finds the first line that is exactly "---" (optionally
// CRLF terminated, or at end of input) and splits around it.
func splitFrontmatter(rest []byte) (meta, body []byte, ok bool) {
	off := 0
	for {
		end := bytes.IndexByte(rest[off:], '\n')
		line, next := rest[off:], len(rest)
		if end >= 0 {
			line, next = rest[off:off+end], off+end+1
		}
		if bytes.Equal(bytes.TrimSuffix(line, []byte("\r")), []byte("---")) {
			return rest[:off], rest[next:], true
		}
		if end < 0 {
			return nil, nil, false
		}
		off = next
	}
}

// idFromPath derives the default note id from a slash-separated path
// relative to the vault.
func idFromPath(relPath string) string {
	return strings.TrimSuffix(relPath, path.Ext(relPath))
}

// entry converts a parsed file into the index form, filling defaults.
func (nf *noteFile) entry(relPath string) *indexEntry {
	m := nf.Meta

	id := m.ID
	if id == "" {
		id = idFromPath(relPath)
	}
	title := m.Title
	if title == "" {
		title = path.Base(idFromPath(relPath))
	}
	typ := m.Type
	if typ == "" {
		typ = core.NoteText
	}
	mime := m.Mime
	if mime == "" {
		mime = "text/html"
	}

	e := &indexEntry{
		ID: id,
		Note: core.NoteRow{
			NoteID:        id,
			Title:         title,
			ContentLength: len(nf.Body),
			IsProtected:   m.Protected,
			Type:          typ,
			Mime:          mime,
			IsDeleted:     m.Deleted,
		},
	}

	parents := m.Parents
	if len(parents) == 0 && id != core.RootNoteID {
		parents = []parentRef{{ID: core.RootNoteID}}
	}
	for _, p := range parents {
		if p.ID == "" {
			continue
		}
		bid := p.Branch
		if bid == "" {
			bid = p.ID + "_" + id
		}
		e.Branches = append(e.Branches, core.BranchRow{
			BranchID:     bid,
			NoteID:       id,
			ParentNoteID: p.ID,
			NotePosition: p.Position,
			Prefix:       p.Prefix,
		})
	}

	for i, a := range m.Attributes {
		aid := a.ID
		if aid == "" {
			aid = fmt.Sprintf("%s#%d", id, i)
		}
		typ := a.Type
		if typ == "" {
			typ = core.AttributeLabel
		}
		e.Attributes = append(e.Attributes, core.AttributeRow{
			AttributeID:   aid,
			NoteID:        id,
			Type:          typ,
			Name:          a.Name,
			Value:         a.Value,
			IsInheritable: a.Inheritable,
			Position:      i,
		})
	}
	return e
}
