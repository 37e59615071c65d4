// Package watcher reloads the markov chain when its artifact changes
// on disk. The trainer CLI can rebuild the chain while the bot is
// running and the bot picks it up without a restart.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Soypete/discord-markov-bot/logging"
	"github.com/Soypete/discord-markov-bot/metrics"
)

// ReloadFunc loads the artifact and swaps it into the live model.
type ReloadFunc func(ctx context.Context) error

// ChainWatcher watches the chain artifact for writes. The parent
// directory is watched rather than the file itself because the saver
// replaces the file by rename, which would break a file watch.
type ChainWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	reload   ReloadFunc
	logger   *logging.Logger
	pending  time.Time
	debounce time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewChainWatcher creates a watcher for the chain artifact at path.
// Start must be called to begin watching.
func NewChainWatcher(path string, reload ReloadFunc, logger *logging.Logger) (*ChainWatcher, error) {
	if logger == nil {
		logger = logging.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &ChainWatcher{
		watcher:  fsw,
		path:     path,
		reload:   reload,
		logger:   logger.Component("watcher"),
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in its own
// goroutine until Stop or ctx cancellation.
func (cw *ChainWatcher) Start(ctx context.Context) error {
	cw.mu.Lock()
	if cw.running {
		cw.mu.Unlock()
		return nil
	}
	cw.running = true
	cw.mu.Unlock()

	dir := filepath.Dir(cw.path)
	if err := cw.watcher.Add(dir); err != nil {
		return err
	}
	cw.logger.Info("watching chain artifact", "path", cw.path)

	go cw.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (cw *ChainWatcher) Stop() {
	cw.mu.Lock()
	if !cw.running {
		cw.mu.Unlock()
		return
	}
	cw.running = false
	cw.mu.Unlock()

	close(cw.stopCh)
	<-cw.doneCh

	if err := cw.watcher.Close(); err != nil {
		cw.logger.Error("failed to close watcher", "error", err)
	}
}

func (cw *ChainWatcher) run(ctx context.Context) {
	defer close(cw.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopCh:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleEvent(event)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Error("watch error", "error", err)
		case <-ticker.C:
			cw.reloadIfSettled(ctx)
		}
	}
}

// handleEvent records a change to the artifact. Saves land as a
// rename onto the final name, so Create counts as much as Write.
func (cw *ChainWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != filepath.Base(cw.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	cw.logger.Debug("chain artifact changed", "op", event.Op.String())

	cw.mu.Lock()
	cw.pending = time.Now()
	cw.mu.Unlock()
}

// reloadIfSettled reloads once the artifact has stopped changing for
// the debounce window. Rapid rewrites collapse into one reload.
func (cw *ChainWatcher) reloadIfSettled(ctx context.Context) {
	cw.mu.Lock()
	if cw.pending.IsZero() || time.Since(cw.pending) < cw.debounce {
		cw.mu.Unlock()
		return
	}
	cw.pending = time.Time{}
	cw.mu.Unlock()

	if err := cw.reload(ctx); err != nil {
		cw.logger.Error("chain reload failed", "error", err)
		return
	}
	metrics.ChainReloadCount.Add(1)
	cw.logger.Info("chain reloaded from artifact")
}
