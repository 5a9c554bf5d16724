package fs

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominic-sylvester/trilium/pkg/core"
)

func TestWatchWorker_SupervisorRestarts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := NewRepository(Config{Path: t.TempDir()})
	require.NoError(t, repo.Initialize(ctx))

	events := make(chan core.Event)
	created := make(chan *watchWorker, 2)

	spec := supervisor.Spec{
		Name: "vault-watcher",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			w := newWatchWorker(repo, events)
			created <- w
			return w, nil
		},
		Backoff: supervisor.Backoff{
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      1,
			ResetDuration:   50 * time.Millisecond,
			MaxRestarts:     2,
			MaxDuration:     200 * time.Millisecond,
		},
		RestartPolicy: supervisor.RestartOnFailure,
	}

	sup := supervisor.New("test-watcher", supervisor.StrategyOneForOne, spec)
	require.NoError(t, sup.Start(ctx))

	first := waitForWorker(t, created)
	waitForWatcherActive(t, repo)
	require.Eventually(t, func() bool { return first.watcher != nil }, 2*time.Second, 10*time.Millisecond)

	// Closing the fsnotify watcher fails the worker; the supervisor must
	// start a new one.
	_ = first.watcher.Close()

	second := waitForWorker(t, created)
	assert.NotSame(t, first, second)
	waitForWatcherActive(t, repo)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, sup.Stop(stopCtx))
}

func waitForWorker(t *testing.T, ch <-chan *watchWorker) *watchWorker {
	t.Helper()
	select {
	case w := <-ch:
		return w
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for watch worker")
		return nil
	}
}

func waitForWatcherActive(t *testing.T, repo *Repository) {
	t.Helper()
	require.Eventually(t, func() bool {
		state, ok := repo.State().(RepositoryState)
		return ok && state.WatcherActive
	}, 2*time.Second, 10*time.Millisecond)
}
