package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dominic-sylvester/trilium/pkg/core"
)

const indexVersion = 1

// indexEntry is everything a scan needs from one note file, minus its body.
type indexEntry struct {
	ID           string              `json:"id"`
	Note         core.NoteRow        `json:"note"`
	Branches     []core.BranchRow    `json:"branches,omitempty"`
	Attributes   []core.AttributeRow `json:"attributes,omitempty"`
	LastModified time.Time           `json:"lastModified"`
}

// index is the persisted scan state, keyed by slash-separated relative path.
type index struct {
	Version int                    `json:"version"`
	Entries map[string]*indexEntry `json:"entries"`

	path  string
	dirty bool
	mu    sync.RWMutex
}

// newIndex creates an empty index stored at {vaultPath}/{systemDir}/index.json.
func newIndex(vaultPath, systemDir string) *index {
	return &index{
		Version: indexVersion,
		Entries: make(map[string]*indexEntry),
		path:    filepath.Join(vaultPath, systemDir, "index.json"),
	}
}

// Load reads the index from disk. A missing, corrupt or outdated file
// leaves the index empty without error; the next scan rebuilds it.
func (x *index) Load() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	data, err := os.ReadFile(x.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	var disk struct {
		Version int                    `json:"version"`
		Entries map[string]*indexEntry `json:"entries"`
	}
	if err := json.Unmarshal(data, &disk); err != nil || disk.Version != indexVersion || disk.Entries == nil {
		x.Entries = make(map[string]*indexEntry)
		return nil
	}

	x.Entries = disk.Entries
	x.dirty = false
	return nil
}

// Save writes the index if it changed since the last Load or Save.
func (x *index) Save() error {
	x.mu.RLock()
	if !x.dirty {
		x.mu.RUnlock()
		return nil
	}
	data, err := json.MarshalIndent(x, "", "  ")
	x.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(x.path), 0755); err != nil {
		return err
	}
	if err := writeFileAtomic(x.path, data, 0644); err != nil {
		return err
	}

	x.mu.Lock()
	x.dirty = false
	x.mu.Unlock()
	return nil
}

// Get returns the entry for relPath if it was recorded at mtime.
func (x *index) Get(relPath string, mtime time.Time) (*indexEntry, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	e, ok := x.Entries[relPath]
	if !ok || !e.LastModified.Equal(mtime) {
		return nil, false
	}
	return e, true
}

// Lookup returns the entry for relPath regardless of its age.
func (x *index) Lookup(relPath string) (*indexEntry, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	e, ok := x.Entries[relPath]
	return e, ok
}

func (x *index) Set(relPath string, e *indexEntry) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.Entries[relPath] = e
	x.dirty = true
}

// Prune drops entries whose path is not in keep.
func (x *index) Prune(keep map[string]bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for p := range x.Entries {
		if !keep[p] {
			delete(x.Entries, p)
			x.dirty = true
		}
	}
}

// Reset empties the index and marks it for writing.
func (x *index) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.Entries = make(map[string]*indexEntry)
	x.dirty = true
}

func (x *index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.Entries)
}
