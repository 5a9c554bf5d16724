package trilium

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dominic-sylvester/trilium/internal/platform"
	"github.com/dominic-sylvester/trilium/pkg/core"
	"github.com/dominic-sylvester/trilium/pkg/treecache"
)

// --- Types ---

type (
	Note          = core.Note
	Branch        = core.Branch
	Attribute     = core.Attribute
	AttributeType = core.AttributeType
	NoteType      = core.NoteType
	Query         = core.Query
	Repository    = core.Repository
	Store         = core.Store
	TreeCache     = treecache.TreeCache
)

const (
	AttributeLabel    = core.AttributeLabel
	AttributeRelation = core.AttributeRelation
)

// Labels matches labels named name; an empty name matches every label.
func Labels(name string) Query { return core.Labels(name) }

// Relations matches relations named name; an empty name matches every relation.
func Relations(name string) Query { return core.Relations(name) }

// --- Configuration ---

// Option defines a functional option for opening a tree.
type Option = platform.Option

// WithLogger sets the logger for the cache and its adapter.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository allows injecting a custom repository.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithAdapter selects the repository adapter by name ("fs" or "remote").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithSystemDir sets the hidden vault directory (e.g. ".trilium").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithPattern sets the glob selecting note files in a vault.
func WithPattern(pattern string) Option {
	return platform.WithPattern(pattern)
}

// WithMustExist ensures the vault directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithReadOnly opens a vault without ever writing to it.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithTimeout bounds each request of the remote adapter.
func WithTimeout(d time.Duration) Option {
	return platform.WithTimeout(d)
}

// WithUserAgent sets the User-Agent of the remote adapter.
func WithUserAgent(ua string) Option {
	return platform.WithUserAgent(ua)
}

// WithHTTPClient replaces the client of the remote adapter.
func WithHTTPClient(c *http.Client) Option {
	return platform.WithHTTPClient(c)
}

// WithAttributeMemo memoizes resolved attribute lists for ttl.
func WithAttributeMemo(ttl time.Duration) Option {
	return platform.WithAttributeMemo(ttl)
}

// WithWatch keeps the cache in step with repository changes.
func WithWatch(enabled bool) Option {
	return platform.WithWatch(enabled)
}

// --- Factory ---

// Open returns a TreeCache over the vault directory or server URL in uri.
func Open(ctx context.Context, uri string, opts ...Option) (*TreeCache, error) {
	return platform.New(ctx, uri, opts...)
}

// Init builds and initializes the repository for uri without a cache.
func Init(ctx context.Context, uri string, opts ...Option) (core.Repository, error) {
	return platform.Init(ctx, uri, opts...)
}

// FindVaultRoot looks upwards from startDir for a vault root indicator.
func FindVaultRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
