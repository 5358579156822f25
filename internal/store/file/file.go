// Package file keeps the org-list snapshot in a JSON file under the storage directory.
package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/MrSnakeDoc/sflens/internal/logger"
	"github.com/MrSnakeDoc/sflens/internal/store"
)

// FileName is the snapshot file created under the storage directory.
const FileName = "orgs-cache.json"

// Store is a file-backed store.SnapshotStore. A Store whose directory could
// not be created is disabled: Load finds nothing and Save does nothing.
type Store struct {
	path   string
	logger logger.Logger
}

// New creates dir (with parents) and returns a store writing dir/orgs-cache.json.
// An empty dir, or one that cannot be created, yields a disabled store.
func New(dir string, log logger.Logger) *Store {
	s := &Store{logger: log}
	if dir == "" {
		return s
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		log.Warn("could not create storage directory, persistence disabled",
			logger.String("dir", dir),
			logger.Error(err))
		return s
	}
	s.path = filepath.Join(dir, FileName)
	return s
}

// Enabled reports whether the store has a usable directory.
func (s *Store) Enabled() bool { return s.path != "" }

// Path returns the snapshot file path, empty when disabled.
func (s *Store) Path() string { return s.path }

func (s *Store) Load(_ context.Context) (*store.Snapshot, bool) {
	if !s.Enabled() {
		return nil, false
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to read persisted org cache",
				logger.String("path", s.path),
				logger.Error(err))
		}
		return nil, false
	}

	snap, err := store.Decode(raw)
	if err != nil {
		s.logger.Warn("ignoring persisted org cache",
			logger.String("path", s.path),
			logger.Error(err))
		return nil, false
	}
	return snap, true
}

// Save writes the snapshot through a temp file and rename so a crash never
// leaves a truncated document behind.
func (s *Store) Save(_ context.Context, snap store.Snapshot) {
	if !s.Enabled() {
		return
	}
	if err := s.write(snap); err != nil {
		s.logger.Warn("failed to save persisted org cache",
			logger.String("path", s.path),
			logger.Error(err))
	}
}

func (s *Store) write(snap store.Snapshot) error {
	raw, err := store.Encode(snap)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), FileName+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Clear removes the snapshot file. A missing file is not an error.
func (s *Store) Clear() error {
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
