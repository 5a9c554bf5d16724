package treecache

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/dominic-sylvester/trilium/pkg/core"
)

// Watch keeps the cache in step with a repository that reports changes.
// Created and modified notes are reloaded, deleted ones evicted. It returns
// core.ErrNotWatchable when the repository cannot report changes.
func (c *TreeCache) Watch(ctx context.Context) error {
	w, ok := c.repo.(core.Watchable)
	if !ok {
		return core.ErrNotWatchable
	}

	events, err := w.Watch(ctx)
	if err != nil {
		return err
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				c.handleEvent(ctx, e)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		c.logger.Error("tree cache watch loop failed", "error", err)
	}))

	return nil
}

func (c *TreeCache) handleEvent(ctx context.Context, e core.Event) {
	c.logger.Debug("tree cache event", "type", e.Type, "id", e.ID)

	switch e.Type {
	case core.EventDelete:
		c.Evict(e.ID)
	case core.EventCreate, core.EventModify:
		if err := c.Reload(ctx, []string{e.ID}); err != nil {
			c.logger.Warn("tree cache reload failed", "id", e.ID, "error", err)
		}
	}
}
