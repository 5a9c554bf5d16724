package treecache

import (
	"log/slog"
	"time"
)

// options holds the internal configuration for a TreeCache.
type options struct {
	logger  *slog.Logger
	memoTTL time.Duration
}

// Option defines a functional option for configuring a TreeCache.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		logger:  nil,
		memoTTL: 0,
	}
}

// WithLogger sets the logger for the cache.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAttributeMemo keeps resolved attribute lists for ttl.
// Zero (the default) disables the memo: every resolution walks the tree.
func WithAttributeMemo(ttl time.Duration) Option {
	return func(o *options) {
		o.memoTTL = ttl
	}
}
