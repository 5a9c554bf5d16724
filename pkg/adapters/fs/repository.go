package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/dominic-sylvester/trilium/pkg/core"
)

const (
	// DefaultSystemDir holds the scan index inside the vault.
	DefaultSystemDir = ".trilium"
	// DefaultPattern selects note files relative to the vault root.
	DefaultPattern = "**/*.md"
)

// Repository implements core.Repository over a directory of Markdown notes
// with YAML frontmatter. Every Load rescans the vault; files whose mtime
// matches the persisted index are not reparsed.
type Repository struct {
	Path   string
	config Config
	index  *index
	logger *slog.Logger

	mu            sync.RWMutex
	snap          *snapshot
	watcherActive bool
	lastScan      *time.Time
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path      string
	MustExist bool
	ReadOnly  bool   // never write the index; implies MustExist
	SystemDir string // defaults to DefaultSystemDir
	Pattern   string // defaults to DefaultPattern

	// Concurrency bounds parallel file parsing. Zero means GOMAXPROCS.
	Concurrency int

	Logger       *slog.Logger
	ErrorHandler func(error) // receives watcher errors
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Pattern == "" {
		config.Pattern = DefaultPattern
	}
	if config.Concurrency <= 0 {
		config.Concurrency = runtime.GOMAXPROCS(0)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		Path:   config.Path,
		config: config,
		index:  newIndex(config.Path, config.SystemDir),
		logger: logger,
	}
}

// Initialize checks or creates the vault directory and loads the index.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist || r.config.ReadOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("vault path does not exist: %s", r.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat vault: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", r.Path)
		}
	} else if err := os.MkdirAll(r.Path, 0755); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}

	if err := r.index.Load(); err != nil {
		r.logger.Warn("ignoring unreadable index", "path", r.index.path, "error", err)
	}
	return nil
}

// Load returns the requested notes with their owned attributes, their
// branches in both directions and the relations that point at them.
// Requested branch ids add the branch and its child note. Unknown ids are
// omitted.
func (r *Repository) Load(ctx context.Context, req core.LoadRequest) (core.Rows, error) {
	snap, err := r.scan(ctx)
	if err != nil {
		return core.Rows{}, err
	}

	var rows core.Rows
	seenNotes := make(map[string]bool)
	seenBranches := make(map[string]bool)
	seenAttrs := make(map[string]bool)

	addBranch := func(b core.BranchRow) {
		if !seenBranches[b.BranchID] {
			seenBranches[b.BranchID] = true
			rows.Branches = append(rows.Branches, b)
		}
	}
	addAttr := func(a core.AttributeRow) {
		if !seenAttrs[a.AttributeID] {
			seenAttrs[a.AttributeID] = true
			rows.Attributes = append(rows.Attributes, a)
		}
	}

	ids := slices.Clone(req.NoteIDs)
	for _, bid := range req.BranchIDs {
		if b, ok := snap.branches[bid]; ok {
			addBranch(b)
			ids = append(ids, b.NoteID)
		}
	}

	for _, id := range ids {
		e, ok := snap.notes[id]
		if !ok || seenNotes[id] {
			continue
		}
		seenNotes[id] = true
		rows.Notes = append(rows.Notes, e.Note)

		for _, b := range e.Branches {
			addBranch(b)
		}
		for _, b := range snap.children[id] {
			addBranch(b)
		}
		for _, a := range e.Attributes {
			addAttr(a)
		}
		for _, a := range snap.incoming[id] {
			addAttr(a)
		}
	}

	r.logger.Debug("vault load",
		"note_ids", len(req.NoteIDs),
		"branch_ids", len(req.BranchIDs),
		"notes", len(rows.Notes))
	return rows, nil
}

// Content returns the body of a note file.
func (r *Repository) Content(ctx context.Context, noteID string) (string, error) {
	if noteID == "" {
		return "", core.ErrEmptyID
	}

	snap := r.current()
	if snap == nil || snap.notes[noteID] == nil {
		var err error
		if snap, err = r.scan(ctx); err != nil {
			return "", err
		}
	}

	if _, ok := snap.notes[noteID]; !ok {
		return "", fmt.Errorf("note %q: %w", noteID, core.ErrNotFound)
	}
	rel, ok := snap.paths[noteID]
	if !ok {
		// implicit root
		return "", nil
	}

	f, err := os.Open(r.abs(rel))
	if errors.Is(err, iofs.ErrNotExist) {
		return "", fmt.Errorf("note %q: %w", noteID, core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to open note %q: %w", noteID, err)
	}
	defer f.Close()

	nf, err := parseNote(f)
	if err != nil {
		return "", fmt.Errorf("failed to parse note %q: %w", noteID, err)
	}
	return nf.Body, nil
}

// Reindex drops the persisted index and rebuilds it from every file.
func (r *Repository) Reindex(ctx context.Context) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	r.index.Reset()
	_, err := r.scan(ctx)
	return err
}

// scan matches every note file, reparses the ones that changed and
// publishes a fresh snapshot.
func (r *Repository) scan(ctx context.Context) (*snapshot, error) {
	fsys := os.DirFS(r.Path)
	matches, err := doublestar.Glob(fsys, r.config.Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to glob vault: %w", err)
	}
	matches = slices.DeleteFunc(matches, r.isSystemPath)
	slices.Sort(matches)

	entries := make([]*indexEntry, len(matches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Concurrency)
	for i, rel := range matches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			info, err := iofs.Stat(fsys, rel)
			if errors.Is(err, iofs.ErrNotExist) {
				return nil
			}
			if err != nil {
				return err
			}
			if e, ok := r.index.Get(rel, info.ModTime()); ok {
				entries[i] = e
				return nil
			}

			e, err := r.parseFile(rel)
			if err != nil {
				r.logger.Warn("skipping unparseable note", "path", rel, "error", err)
				return nil
			}
			e.LastModified = info.ModTime()
			r.index.Set(rel, e)
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to scan vault: %w", err)
	}

	keep := make(map[string]bool, len(matches))
	for i, rel := range matches {
		if entries[i] != nil {
			keep[rel] = true
		}
	}
	r.index.Prune(keep)
	if !r.config.ReadOnly {
		if err := r.index.Save(); err != nil {
			r.logger.Warn("failed to save index", "path", r.index.path, "error", err)
		}
	}

	snap := buildSnapshot(matches, entries, r.logger)
	now := time.Now()
	r.mu.Lock()
	r.snap = snap
	r.lastScan = &now
	r.mu.Unlock()
	return snap, nil
}

func (r *Repository) parseFile(rel string) (*indexEntry, error) {
	f, err := os.Open(r.abs(rel))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	nf, err := parseNote(f)
	if err != nil {
		return nil, err
	}
	return nf.entry(rel), nil
}

func (r *Repository) current() *snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

func (r *Repository) abs(rel string) string {
	return filepath.Join(r.Path, filepath.FromSlash(rel))
}

// isSystemPath reports whether a vault-relative path lives in a directory
// that never holds notes.
func (r *Repository) isSystemPath(rel string) bool {
	first, _, _ := strings.Cut(rel, "/")
	return first == r.config.SystemDir || first == ".git"
}

// snapshot is one consistent view of the vault, indexed for Load.
type snapshot struct {
	notes    map[string]*indexEntry
	paths    map[string]string // note id -> relative path
	branches map[string]core.BranchRow
	children map[string][]core.BranchRow    // parent id -> child branches
	incoming map[string][]core.AttributeRow // target id -> relations
}

func buildSnapshot(paths []string, entries []*indexEntry, logger *slog.Logger) *snapshot {
	s := &snapshot{
		notes:    make(map[string]*indexEntry, len(entries)),
		paths:    make(map[string]string, len(entries)),
		branches: make(map[string]core.BranchRow),
		children: make(map[string][]core.BranchRow),
		incoming: make(map[string][]core.AttributeRow),
	}

	for i, e := range entries {
		if e == nil {
			continue
		}
		if other, dup := s.paths[e.ID]; dup {
			logger.Warn("duplicate note id", "id", e.ID, "path", paths[i], "kept", other)
			continue
		}
		s.notes[e.ID] = e
		s.paths[e.ID] = paths[i]

		for _, b := range e.Branches {
			s.branches[b.BranchID] = b
			s.children[b.ParentNoteID] = append(s.children[b.ParentNoteID], b)
		}
		for _, a := range e.Attributes {
			if a.Type == core.AttributeRelation && a.Value != "" {
				s.incoming[a.Value] = append(s.incoming[a.Value], a)
			}
		}
	}

	if _, ok := s.notes[core.RootNoteID]; !ok {
		s.notes[core.RootNoteID] = &indexEntry{
			ID: core.RootNoteID,
			Note: core.NoteRow{
				NoteID: core.RootNoteID,
				Title:  core.RootNoteID,
				Type:   core.NoteText,
				Mime:   "text/html",
			},
		}
	}
	return s
}

var _ core.Repository = (*Repository)(nil)
var _ core.Watchable = (*Repository)(nil)
