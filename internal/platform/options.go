package platform

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dominic-sylvester/trilium/pkg/core"
)

// options holds the internal configuration for opening a tree.
type options struct {
	repository core.Repository
	logger     *slog.Logger
	adapter    string

	systemDir    string
	pattern      string
	mustExist    bool
	readOnly     bool
	errorHandler func(error)

	timeout    time.Duration
	userAgent  string
	httpClient *http.Client

	memoTTL time.Duration
	watch   bool
}

// Option defines a functional option for configuring a tree.
type Option func(*options)

func defaultOptions() *options {
	return &options{}
}

// WithLogger sets the logger for the cache and its adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository injects a repository; the uri is then ignored.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithAdapter selects the adapter by name ("fs" or "remote"). By default it
// is picked from the uri: http(s) URLs are remote, anything else a vault path.
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithSystemDir sets the vault directory that holds the scan index.
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithPattern sets the glob selecting note files inside the vault.
func WithPattern(pattern string) Option {
	return func(o *options) {
		o.pattern = pattern
	}
}

// WithMustExist fails instead of creating a missing vault directory.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithReadOnly never writes to the vault, not even the index.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithWatcherErrorHandler receives errors from the vault watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithTimeout bounds each remote request.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithUserAgent sets the User-Agent of remote requests.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithHTTPClient replaces the client used for remote requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithAttributeMemo enables the resolved-attribute memo for ttl.
func WithAttributeMemo(ttl time.Duration) Option {
	return func(o *options) {
		o.memoTTL = ttl
	}
}

// WithWatch keeps the cache in sync with repository change events.
func WithWatch(enabled bool) Option {
	return func(o *options) {
		o.watch = enabled
	}
}
