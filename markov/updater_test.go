package markov

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Soypete/discord-markov-bot/logging"
)

// failingStore wraps a real store and fails the chosen step
type failingStore struct {
	*Store
	failSave   bool
	failBackup bool
}

func (f *failingStore) Save(chain *Chain) error {
	if f.failSave {
		return &StorageError{Op: "write", Err: errors.New("disk full")}
	}
	return f.Store.Save(chain)
}

func (f *failingStore) Backup() error {
	if f.failBackup {
		return &StorageError{Op: "backup copy", Err: errors.New("disk full")}
	}
	return f.Store.Backup()
}

func newUpdaterFixture(t *testing.T) (*Store, *Model, *TrainingBuffer) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "chain.json"), logging.Discard())
	base := buildChain(t, 2, "the stream is live", "the stream is down")
	if err := store.Save(base); err != nil {
		t.Fatalf("saving base chain: %v", err)
	}
	return store, NewModel(base), NewTrainingBuffer()
}

func TestUpdateLearns(t *testing.T) {
	store, model, buffer := newUpdaterFixture(t)
	updater := NewUpdater(store, model, buffer, logging.Discard())

	buffer.Record("1", "a brand new sentence about routers")
	buffer.Record("2", "!command chatter that should not train")
	buffer.Record("3", "another new sentence about tacos")

	before := model.Chain()
	result := updater.Update(context.Background())

	if result.Outcome != UpdateLearned {
		t.Fatalf("expected UpdateLearned, got %v (err %v)", result.Outcome, result.Err)
	}
	if result.Learned != 2 {
		t.Errorf("expected 2 learned sentences, got %d", result.Learned)
	}
	if model.Chain() == before {
		t.Error("live model was not swapped")
	}
	if buffer.Len() != 0 {
		t.Errorf("buffer should be empty after a committed update, has %d", buffer.Len())
	}

	// the old model went to the backup, the merged one to the primary
	backup, err := store.read(store.BackupPath())
	if err != nil {
		t.Fatalf("backup unreadable: %v", err)
	}
	if diff := cmp.Diff(before.transitions, backup.transitions); diff != "" {
		t.Errorf("backup is not the pre-update chain (-want +got):\n%s", diff)
	}
	primary, err := store.read(store.Path())
	if err != nil {
		t.Fatalf("primary unreadable: %v", err)
	}
	if diff := cmp.Diff(model.Chain().transitions, primary.transitions); diff != "" {
		t.Errorf("primary is not the live chain (-want +got):\n%s", diff)
	}
	if primary.StateCount() <= before.StateCount() {
		t.Errorf("merged chain should have grown: %d -> %d", before.StateCount(), primary.StateCount())
	}
}

func TestUpdateNothingToLearn(t *testing.T) {
	store, model, buffer := newUpdaterFixture(t)
	updater := NewUpdater(store, model, buffer, logging.Discard())

	before := model.Chain()
	artifactBefore, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}

	result := updater.Update(context.Background())
	if result.Outcome != UpdateNothingToLearn {
		t.Fatalf("expected UpdateNothingToLearn, got %v", result.Outcome)
	}
	if model.Chain() != before {
		t.Error("an empty update must not swap the model")
	}

	artifactAfter, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if string(artifactBefore) != string(artifactAfter) {
		t.Error("an empty update must not touch the artifact")
	}
	if _, err := os.Stat(store.BackupPath()); !errors.Is(err, os.ErrNotExist) {
		t.Error("an empty update must not write a backup")
	}
}

func TestUpdateOnlyUnlearnableText(t *testing.T) {
	store, model, buffer := newUpdaterFixture(t)
	updater := NewUpdater(store, model, buffer, logging.Discard())

	buffer.Record("1", "!all")
	buffer.Record("2", "@commands")

	result := updater.Update(context.Background())
	if result.Outcome != UpdateNothingToLearn {
		t.Fatalf("expected UpdateNothingToLearn, got %v", result.Outcome)
	}
	// rejected chatter still gets cleared so it cannot pile up
	if buffer.Len() != 0 {
		t.Errorf("expected filtered entries to clear, buffer has %d", buffer.Len())
	}
}

func TestUpdateBusy(t *testing.T) {
	store, model, buffer := newUpdaterFixture(t)
	updater := NewUpdater(store, model, buffer, logging.Discard())

	updater.mu.Lock()
	defer updater.mu.Unlock()

	result := updater.Update(context.Background())
	if result.Outcome != UpdateBusy {
		t.Fatalf("expected UpdateBusy while locked, got %v", result.Outcome)
	}
}

func TestUpdatePersistFailureRollsBack(t *testing.T) {
	store, model, buffer := newUpdaterFixture(t)
	broken := &failingStore{Store: store, failSave: true}
	updater := NewUpdater(broken, model, buffer, logging.Discard())

	buffer.Record("1", "sentence that will not stick")

	before := model.Chain()
	artifactBefore, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}

	result := updater.Update(context.Background())
	if result.Outcome != UpdateFailed {
		t.Fatalf("expected UpdateFailed, got %v", result.Outcome)
	}
	var storageErr *StorageError
	if !errors.As(result.Err, &storageErr) {
		t.Errorf("expected a StorageError cause, got %v", result.Err)
	}

	// the live model rolled back, the artifact is untouched, and the
	// buffered text survives for the next try
	if model.Chain() != before {
		t.Error("failed persist must roll the model back")
	}
	artifactAfter, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if string(artifactBefore) != string(artifactAfter) {
		t.Error("failed persist must leave the artifact alone")
	}
	if buffer.Len() != 1 {
		t.Errorf("failed update must keep the buffer, has %d", buffer.Len())
	}

	// and the backup it wrote on the way down still loads
	backup, err := store.read(store.BackupPath())
	if err != nil {
		t.Fatalf("backup unreadable after failed persist: %v", err)
	}
	if diff := cmp.Diff(before.transitions, backup.transitions); diff != "" {
		t.Errorf("backup should hold the pre-update chain (-want +got):\n%s", diff)
	}
}

func TestUpdateBackupFailureAborts(t *testing.T) {
	store, model, buffer := newUpdaterFixture(t)
	broken := &failingStore{Store: store, failBackup: true}
	updater := NewUpdater(broken, model, buffer, logging.Discard())

	buffer.Record("1", "sentence that will not stick")

	before := model.Chain()
	result := updater.Update(context.Background())
	if result.Outcome != UpdateFailed {
		t.Fatalf("expected UpdateFailed, got %v", result.Outcome)
	}
	if model.Chain() != before {
		t.Error("failed backup must not swap the model")
	}
	if buffer.Len() != 1 {
		t.Errorf("failed update must keep the buffer, has %d", buffer.Len())
	}
}

func TestUpdateResultMessages(t *testing.T) {
	if got := (UpdateResult{Outcome: UpdateLearned, Learned: 7}).Message(); got != "Markov chain updated with 7 new sentences." {
		t.Errorf("unexpected learned message: %q", got)
	}
	if got := (UpdateResult{Outcome: UpdateBusy}).Message(); got == "" {
		t.Error("busy message should not be empty")
	}
}
