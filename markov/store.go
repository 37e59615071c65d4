package markov

import (
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Soypete/discord-markov-bot/logging"
)

// seedCorpus ships inside the binary so a fresh deployment, or one whose
// artifact and backup are both gone, still boots with a chain that can
// talk.
//
//go:embed seed_corpus.txt
var seedCorpus string

// Store persists the chain artifact on disk. Every update writes a .bak
// sibling first, and loading falls back to it when the primary is
// missing or corrupt.
type Store struct {
	path   string
	logger *logging.Logger
}

// NewStore creates a store for the artifact at path.
func NewStore(path string, logger *logging.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
	}
}

// Path returns the primary artifact location.
func (s *Store) Path() string {
	return s.path
}

// BackupPath returns the sibling backup location.
func (s *Store) BackupPath() string {
	return s.path + ".bak"
}

// Load reads the chain artifact. A missing or corrupt primary falls back
// to the backup copy, which is then restored as the primary. When
// neither is readable the built-in seed corpus is trained instead, so
// the caller always gets a working chain. Every fallback is logged.
func (s *Store) Load(order int) (*Chain, error) {
	chain, err := s.read(s.path)
	if err == nil {
		return chain, nil
	}
	s.logger.Warn("chain artifact unreadable, trying backup",
		"path", s.path, "error", err.Error())

	chain, backupErr := s.read(s.BackupPath())
	if backupErr == nil {
		s.logger.Warn("recovered chain from backup", "path", s.BackupPath())
		if saveErr := s.Save(chain); saveErr != nil {
			s.logger.Error("failed to restore primary artifact from backup",
				"error", saveErr.Error())
		}
		return chain, nil
	}
	s.logger.Warn("chain backup unreadable, training built-in seed corpus",
		"path", s.BackupPath(), "error", backupErr.Error())

	seeded, seedErr := Build(strings.Split(seedCorpus, "\n"), order)
	if seedErr != nil {
		return nil, &StorageError{Op: "seed", Err: seedErr}
	}
	return seeded, nil
}

func (s *Store) read(path string) (*Chain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}
	var chain Chain
	if err := json.Unmarshal(data, &chain); err != nil {
		return nil, &StorageError{Op: "decode", Err: err}
	}
	return &chain, nil
}

// Save writes the artifact through a temp file in the same directory and
// renames it into place, so a crash mid-write never leaves a torn
// artifact as the only copy.
func (s *Store) Save(chain *Chain) error {
	data, err := json.Marshal(chain)
	if err != nil {
		return &StorageError{Op: "encode", Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Op: "mkdir", Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return &StorageError{Op: "create", Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &StorageError{Op: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &StorageError{Op: "close", Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return &StorageError{Op: "rename", Err: err}
	}
	return nil
}

// Backup copies the current primary artifact to the backup location.
// Nothing to copy is not an error; a fresh deployment has no artifact
// until the first save.
func (s *Store) Backup() error {
	src, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("no chain artifact to back up", "path", s.path)
			return nil
		}
		return &StorageError{Op: "backup open", Err: err}
	}
	defer src.Close()

	dst, err := os.Create(s.BackupPath())
	if err != nil {
		return &StorageError{Op: "backup create", Err: err}
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return &StorageError{Op: "backup copy", Err: err}
	}
	if err := dst.Close(); err != nil {
		return &StorageError{Op: "backup close", Err: err}
	}
	return nil
}
