package markov

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Soypete/discord-markov-bot/logging"
	"github.com/Soypete/discord-markov-bot/metrics"
)

// UpdateOutcome classifies what a chain update did.
type UpdateOutcome int

const (
	// UpdateLearned means fresh sentences were merged and persisted.
	UpdateLearned UpdateOutcome = iota
	// UpdateNothingToLearn means the buffer held no usable text.
	UpdateNothingToLearn
	// UpdateBusy means another update was already in flight.
	UpdateBusy
	// UpdateFailed means the update aborted. Err carries the cause and
	// the persisted chain and the buffer are left as they were.
	UpdateFailed
)

// String names the outcome for logs.
func (o UpdateOutcome) String() string {
	switch o {
	case UpdateLearned:
		return "learned"
	case UpdateNothingToLearn:
		return "nothing_to_learn"
	case UpdateBusy:
		return "busy"
	default:
		return "failed"
	}
}

// UpdateResult reports the outcome of a chain update.
type UpdateResult struct {
	Outcome UpdateOutcome
	Learned int
	Err     error
}

// Message returns a summary fit for posting back to whoever asked for
// the update.
func (r UpdateResult) Message() string {
	switch r.Outcome {
	case UpdateLearned:
		return fmt.Sprintf("Markov chain updated with %d new sentences.", r.Learned)
	case UpdateNothingToLearn:
		return "No new messages to learn from."
	case UpdateBusy:
		return "A chain update is already running, try again in a moment."
	default:
		return "The chain update failed. The previous model is still in place."
	}
}

// ChainStore is the slice of Store the updater needs.
type ChainStore interface {
	Backup() error
	Save(chain *Chain) error
}

// Updater folds buffered chat into the live chain and persists the
// result. At most one update runs at a time; a caller that finds one in
// flight gets UpdateBusy instead of queueing behind it.
type Updater struct {
	store  ChainStore
	model  *Model
	buffer *TrainingBuffer
	logger *logging.Logger
	mu     sync.Mutex
}

// NewUpdater wires an updater to the shared model, its buffer, and the
// artifact store.
func NewUpdater(store ChainStore, model *Model, buffer *TrainingBuffer, logger *logging.Logger) *Updater {
	return &Updater{
		store:  store,
		model:  model,
		buffer: buffer,
		logger: logger,
	}
}

// Update runs one full learn cycle: drain the buffer, train an interim
// chain on it, back up the artifact, merge, swap the live model, and
// persist. A failed persist swaps the old chain back so readers stay
// consistent with what is on disk. The buffer only forgets its drained
// messages once the cycle succeeds.
func (u *Updater) Update(ctx context.Context) UpdateResult {
	if !u.mu.TryLock() {
		u.logger.Info("chain update requested while one is running")
		return UpdateResult{Outcome: UpdateBusy}
	}
	defer u.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return UpdateResult{Outcome: UpdateFailed, Err: err}
	}

	start := time.Now()
	snapshot := u.buffer.DrainForTraining()
	if len(snapshot) == 0 {
		// clear examined-but-rejected chatter so it cannot pile up
		u.buffer.CommitDrain()
		u.logger.Info("no new messages to train the chain with")
		return UpdateResult{Outcome: UpdateNothingToLearn}
	}

	current := u.model.Chain()
	fresh, err := Build(snapshot, current.Order())
	if err != nil {
		metrics.ChainUpdateFailedCount.Add(1)
		u.logger.Error("interim chain failed to train", "error", err.Error())
		return UpdateResult{Outcome: UpdateFailed, Err: err}
	}

	if err := u.store.Backup(); err != nil {
		metrics.ChainUpdateFailedCount.Add(1)
		u.logger.Error("failed to back up chain artifact", "error", err.Error())
		return UpdateResult{Outcome: UpdateFailed, Err: err}
	}

	merged, err := Merge(current, fresh)
	if err != nil {
		metrics.ChainUpdateFailedCount.Add(1)
		u.logger.Error("failed to merge interim chain", "error", err.Error())
		return UpdateResult{Outcome: UpdateFailed, Err: err}
	}

	previous := u.model.Swap(merged)
	if err := u.store.Save(merged); err != nil {
		// readers stay consistent with the last persisted artifact
		u.model.Swap(previous)
		metrics.ChainUpdateFailedCount.Add(1)
		u.logger.Error("failed to persist merged chain, rolled back", "error", err.Error())
		return UpdateResult{Outcome: UpdateFailed, Err: err}
	}

	u.buffer.CommitDrain()
	metrics.ChainUpdateCount.Add(1)
	metrics.ChainUpdateDuration.Observe(time.Since(start).Seconds())
	metrics.ChainStates.Set(float64(merged.StateCount()))
	metrics.TrainingBufferSize.Set(float64(u.buffer.Len()))
	u.logger.Info("markov chain updated",
		"sentences", len(snapshot),
		"states", merged.StateCount())
	return UpdateResult{Outcome: UpdateLearned, Learned: len(snapshot)}
}

// RunPeriodic drives Update on a fixed interval until ctx is done.
func (u *Updater) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	u.logger.Info("chain update loop started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			u.logger.Info("chain update loop shutting down")
			return
		case <-ticker.C:
			result := u.Update(ctx)
			if result.Outcome == UpdateFailed {
				u.logger.Error("scheduled chain update failed", "error", result.Err.Error())
			}
		}
	}
}
