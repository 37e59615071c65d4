package markov

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Soypete/discord-markov-bot/logging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "data", "chain.json"), logging.Discard())
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	chain := buildChain(t, 2, "persist me", "persist me harder")

	if err := store.Save(chain); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(2)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(chain.transitions, loaded.transitions); diff != "" {
		t.Errorf("round trip changed the chain (-want +got):\n%s", diff)
	}
}

func TestStoreArtifactOrderWins(t *testing.T) {
	store := newTestStore(t)
	chain := buildChain(t, 3, "order three chains have longer context windows here")

	if err := store.Save(chain); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// configured order says 2, the artifact says 3; the artifact wins
	loaded, err := store.Load(2)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Order() != 3 {
		t.Errorf("expected the artifact order 3 to win, got %d", loaded.Order())
	}
}

func TestStoreLoadFallsBackToBackup(t *testing.T) {
	store := newTestStore(t)
	chain := buildChain(t, 2, "good chain in the backup")

	if err := store.Save(chain); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Backup(); err != nil {
		t.Fatalf("Backup failed: %v", err)
	}

	// trash the primary
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupting primary: %v", err)
	}

	loaded, err := store.Load(2)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(chain.transitions, loaded.transitions); diff != "" {
		t.Errorf("backup recovery changed the chain (-want +got):\n%s", diff)
	}

	// the recovery also rewrites the primary
	restored, err := store.read(store.Path())
	if err != nil {
		t.Fatalf("primary not restored: %v", err)
	}
	if diff := cmp.Diff(chain.transitions, restored.transitions); diff != "" {
		t.Errorf("restored primary differs from the backup (-want +got):\n%s", diff)
	}
}

func TestStoreLoadSeedCorpusWhenNothingReadable(t *testing.T) {
	store := newTestStore(t)

	chain, err := store.Load(2)
	if err != nil {
		t.Fatalf("Load with no artifact should fall back, got %v", err)
	}
	if chain.StateCount() == 0 {
		t.Fatal("seed corpus chain has no states")
	}

	// a fresh deployment can talk
	gen := NewGenerator(NewModel(chain), GeneratorOptions{}, logging.Discard())
	if sentence := gen.Generate(""); sentence == fallbackSentence {
		t.Errorf("seed corpus chain should generate real sentences, got the fallback")
	}
}

func TestStoreBackupWithoutPrimary(t *testing.T) {
	store := newTestStore(t)

	if err := store.Backup(); err != nil {
		t.Fatalf("backup with nothing to copy should be a no-op, got %v", err)
	}
	if _, err := os.Stat(store.BackupPath()); err == nil {
		t.Error("no backup file should exist")
	}
}

func TestStoreSaveReplacesAtomically(t *testing.T) {
	store := newTestStore(t)
	first := buildChain(t, 2, "the first chain version")
	second := buildChain(t, 2, "the second chain version")

	if err := store.Save(first); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := store.Save(second); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	loaded, err := store.read(store.Path())
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if diff := cmp.Diff(second.transitions, loaded.transitions); diff != "" {
		t.Errorf("primary should hold the latest save (-want +got):\n%s", diff)
	}

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	if err != nil {
		t.Fatalf("reading artifact dir: %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		t.Errorf("expected only the artifact in %v", names)
	}
}
