// Package trilium is the composition root for the trilium note tree.
//
// A note tree is a directed acyclic graph of notes joined by branches. Notes
// carry labels and relations; inheritable ones flow down to descendants and
// relations named "template" pull in a template note's attributes.
//
// The tree lives in a TreeCache that loads lazily from a core.Repository:
//
//   - the fs adapter reads a vault of Markdown files with YAML frontmatter
//   - the remote adapter talks to a server over HTTP
//
// Usage:
//
//	cache, err := trilium.Open(ctx, "./notes", trilium.WithWatch(true))
//	if err != nil {
//		return err
//	}
//	note, err := cache.Note(ctx, "projects")
//	attrs, err := note.Attributes(ctx, cache, trilium.Labels("team"))
package trilium
