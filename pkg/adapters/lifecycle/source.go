// Package lifecycle runs a repository's note change feed as a lifecycle.Source.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"

	"github.com/dominic-sylvester/trilium/pkg/core"
)

// Source forwards the changes a watchable repository reports. Each event is
// a core.Event naming the note that changed.
type Source struct {
	repo  core.Watchable
	types map[core.EventType]bool
	out   chan lifecycle.Event
}

// Option configures a Source.
type Option func(*Source)

// OnlyTypes keeps changes of the listed types and drops the rest.
func OnlyTypes(types ...core.EventType) Option {
	return func(s *Source) {
		if len(types) == 0 {
			return
		}
		s.types = make(map[core.EventType]bool, len(types))
		for _, t := range types {
			s.types[t] = true
		}
	}
}

// NewSource creates a Source over repo. Nothing is watched until Start.
func NewSource(repo core.Watchable, opts ...Option) *Source {
	s := &Source{
		repo: repo,
		out:  make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Events() <-chan lifecycle.Event {
	return s.out
}

// Start opens the change feed and forwards it in the background. Events is
// closed once the feed closes or ctx is done.
func (s *Source) Start(ctx context.Context) error {
	feed, err := s.repo.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch repository: %w", err)
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		s.forward(ctx, feed)
		return nil
	})
	return nil
}

func (s *Source) forward(ctx context.Context, feed <-chan core.Event) {
	for {
		var e core.Event
		select {
		case <-ctx.Done():
			return
		case next, ok := <-feed:
			if !ok {
				return
			}
			e = next
		}
		if s.types != nil && !s.types[e.Type] {
			continue
		}
		select {
		case s.out <- e:
		case <-ctx.Done():
			return
		}
	}
}

var _ lifecycle.Source = (*Source)(nil)
