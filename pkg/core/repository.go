package core

import "context"

// Repository is the data source a tree cache loads from.
// Adhering to this interface keeps the cache independent of where notes
// live (a local vault, a remote server, a test fixture).
type Repository interface {
	// Load returns the rows for the requested notes and branches, together
	// with the branches and attributes that link them into the tree.
	// Ids the repository does not know are silently omitted.
	Load(ctx context.Context, req LoadRequest) (Rows, error)

	// Content returns the body of a note. It returns ErrNotFound for unknown ids.
	Content(ctx context.Context, noteID string) (string, error)

	// Initialize ensures the underlying storage is ready.
	Initialize(ctx context.Context) error
}

// Watchable is implemented by repositories that can report changes.
type Watchable interface {
	// Watch emits an Event per changed note until ctx is done.
	// The returned channel is closed when watching stops.
	Watch(ctx context.Context) (<-chan Event, error)
}

// AttributeLookup resolves attribute ids without fetching.
type AttributeLookup interface {
	Attribute(id string) (*Attribute, bool)
}

// BranchLookup resolves branch ids without fetching.
type BranchLookup interface {
	Branch(id string) (*Branch, bool)
}

// Store is the read handle a Note resolves its relationships through.
// It is passed into every resolution call; a Note never keeps one.
type Store interface {
	AttributeLookup
	BranchLookup

	// Note returns the note for id, fetching it on a miss.
	// A nil note with a nil error means the id does not resolve.
	Note(ctx context.Context, id string) (*Note, error)

	// Notes is the batched form of Note. The result is aligned with ids;
	// ids that do not resolve leave a nil slot.
	Notes(ctx context.Context, ids []string) ([]*Note, error)

	// Branches returns the branches for ids, fetching misses. Ids that do
	// not resolve are omitted.
	Branches(ctx context.Context, ids []string) ([]*Branch, error)

	// Content returns the current body of a note. It is never cached.
	Content(ctx context.Context, noteID string) (string, error)
}
