package platform

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dominic-sylvester/trilium/internal/config"
	"github.com/dominic-sylvester/trilium/pkg/core"
	"github.com/dominic-sylvester/trilium/pkg/treecache"
)

// New opens the repository for uri and returns an empty TreeCache over it.
// With WithWatch the cache follows change events until ctx is done.
//
//	cache, err := platform.New(ctx, "./notes", platform.WithReadOnly(true))
func New(ctx context.Context, uri string, opts ...Option) (*treecache.TreeCache, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	repo, err := initRepository(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	var cacheOpts []treecache.Option
	if o.logger != nil {
		cacheOpts = append(cacheOpts, treecache.WithLogger(o.logger))
	}
	if o.memoTTL > 0 {
		cacheOpts = append(cacheOpts, treecache.WithAttributeMemo(o.memoTTL))
	}
	cache := treecache.New(repo, cacheOpts...)

	if o.watch {
		if err := cache.Watch(ctx); err != nil {
			if !errors.Is(err, core.ErrNotWatchable) {
				return nil, err
			}
			cache.Logger().Warn("repository cannot report changes, watch disabled")
		}
	}
	return cache, nil
}

// FromConfig turns a loaded config file into options.
func FromConfig(cfg *config.Config, logger *slog.Logger) []Option {
	opts := []Option{
		WithSystemDir(cfg.Vault.SystemDir),
		WithPattern(cfg.Vault.Pattern),
		WithMustExist(cfg.Vault.MustExist),
		WithReadOnly(cfg.Vault.ReadOnly),
		WithTimeout(time.Duration(cfg.Remote.Timeout)),
		WithUserAgent(cfg.Remote.UserAgent),
		WithAttributeMemo(time.Duration(cfg.Cache.MemoTTL)),
		WithWatch(cfg.Cache.Watch),
	}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	return opts
}
