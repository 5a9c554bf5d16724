package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dominic-sylvester/trilium/pkg/core"
	"github.com/dominic-sylvester/trilium/pkg/treecache"
)

var (
	attrType  string
	attrName  string
	attrOwned bool
)

// lookupNote opens the tree and fetches id, failing when it does not resolve.
func lookupNote(ctx context.Context, id string) (*treecache.TreeCache, *core.Note, error) {
	cache, err := openCache(ctx)
	if err != nil {
		return nil, nil, err
	}
	note, err := cache.Note(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if note == nil {
		return nil, nil, fmt.Errorf("note %q: %w", id, core.ErrNotFound)
	}
	return cache, note, nil
}

var noteCmd = &cobra.Command{
	Use:   "note [id]",
	Short: "Show a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, note, err := lookupNote(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		dto := note.DTO()
		if ok, err := printValue(cmd.OutOrStdout(), dto); ok {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s\t%s\n", dto.NoteID, dto.Title)
		fmt.Fprintf(w, "type: %s (%s)\n", dto.Type, dto.Mime)
		fmt.Fprintf(w, "parents: %v\n", dto.Parents)
		fmt.Fprintf(w, "children: %v\n", dto.Children)
		return nil
	},
}

var attrsCmd = &cobra.Command{
	Use:   "attrs [id]",
	Short: "List the attributes of a note",
	Long: `List the attributes of a note. By default the list is resolved: owned
attributes first, then those from templates and inherited from ancestors.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cache, note, err := lookupNote(ctx, args[0])
		if err != nil {
			return err
		}

		q := core.Query{Type: core.AttributeType(attrType), Name: attrName}
		if q.Type != "" && !q.Type.Valid() {
			return fmt.Errorf("unknown attribute type %q", attrType)
		}

		var attrs []*core.Attribute
		if attrOwned {
			attrs = note.OwnedAttributes(cache, q)
		} else {
			attrs, err = cache.ResolvedAttributes(ctx, note.ID(), q)
			if err != nil {
				return err
			}
		}

		if ok, err := printValue(cmd.OutOrStdout(), attrs); ok {
			return err
		}
		printAttributes(cmd.OutOrStdout(), note.ID(), attrs)
		return nil
	},
}

func printAttributes(w io.Writer, owner string, attrs []*core.Attribute) {
	for _, a := range attrs {
		line := fmt.Sprintf("%s\t%s=%s", a.Type, a.Name, a.Value)
		if a.IsInheritable {
			line += "\tinheritable"
		}
		if a.NoteID != owner {
			line += "\tfrom " + a.NoteID
		}
		fmt.Fprintln(w, line)
	}
}

func printNotes(w io.Writer, notes []*core.Note) {
	for _, n := range notes {
		if n == nil {
			fmt.Fprintln(w, "-")
			continue
		}
		dto := n.DTO()
		fmt.Fprintf(w, "%s\t%s\n", dto.NoteID, dto.Title)
	}
}

func notesCommand(use, short string, args cobra.PositionalArgs, list func(context.Context, *treecache.TreeCache, *core.Note, []string) ([]*core.Note, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cache, note, err := lookupNote(ctx, args[0])
			if err != nil {
				return err
			}
			notes, err := list(ctx, cache, note, args[1:])
			if err != nil {
				return err
			}

			dtos := make([]*core.NoteDTO, len(notes))
			for i, n := range notes {
				if n != nil {
					dto := n.DTO()
					dtos[i] = &dto
				}
			}
			if ok, err := printValue(cmd.OutOrStdout(), dtos); ok {
				return err
			}
			printNotes(cmd.OutOrStdout(), notes)
			return nil
		},
	}
}

var childrenCmd = notesCommand("children [id]", "List the children of a note in branch order", cobra.ExactArgs(1),
	func(ctx context.Context, c *treecache.TreeCache, n *core.Note, _ []string) ([]*core.Note, error) {
		return n.ChildNotes(ctx, c)
	})

var parentsCmd = notesCommand("parents [id]", "List the parents of a note", cobra.ExactArgs(1),
	func(ctx context.Context, c *treecache.TreeCache, n *core.Note, _ []string) ([]*core.Note, error) {
		return n.ParentNotes(ctx, c)
	})

var targetsCmd = notesCommand("targets [id] [relation]", "List the notes a note's relations point to", cobra.RangeArgs(1, 2),
	func(ctx context.Context, c *treecache.TreeCache, n *core.Note, rest []string) ([]*core.Note, error) {
		name := ""
		if len(rest) > 0 {
			name = rest[0]
		}
		return n.RelationTargets(ctx, c, name)
	})

var contentCmd = &cobra.Command{
	Use:   "content [id]",
	Short: "Print the content of a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cache, note, err := lookupNote(ctx, args[0])
		if err != nil {
			return err
		}
		if output != "text" && output != "" {
			v, err := note.JSONContent(ctx, cache)
			if err != nil {
				return err
			}
			_, err = printValue(cmd.OutOrStdout(), v)
			return err
		}
		content, err := note.Content(ctx, cache)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), content)
		return nil
	},
}

func init() {
	attrsCmd.Flags().StringVarP(&attrType, "type", "t", "", "Only attributes of this type (label, relation, ...)")
	attrsCmd.Flags().StringVarP(&attrName, "name", "n", "", "Only attributes with this name")
	attrsCmd.Flags().BoolVar(&attrOwned, "owned", false, "Only attributes the note owns")

	rootCmd.AddCommand(noteCmd, attrsCmd, childrenCmd, parentsCmd, targetsCmd, contentCmd)
}
