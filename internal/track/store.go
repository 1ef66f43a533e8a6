package track

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// FileStore persists the last accepted sample to a JSON file so the
// tracker can warm-start after a process restart.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (*Fix, error) {
	bytes, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var fix Fix
	if err := json.Unmarshal(bytes, &fix); err != nil {
		return nil, err
	}
	return &fix, nil
}

func (s *FileStore) Save(fix Fix) error {
	bytes, err := json.Marshal(fix)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	// Write-then-rename keeps a crash from truncating the previous sample.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// MemoryStore is an in-memory Store for tests and clients without a
// writable filesystem.
type MemoryStore struct {
	fix *Fix
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (*Fix, error) {
	return s.fix, nil
}

func (s *MemoryStore) Save(fix Fix) error {
	f := fix
	s.fix = &f
	return nil
}
