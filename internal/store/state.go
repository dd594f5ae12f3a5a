package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/i474232898/outdoor-temperature/internal/weather"
)

// FileStore retains the weather state in a JSON file so it survives a
// process restart, the host-side equivalent of the device's retained memory.
// Removing the file resets the state, like a full power loss.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns the zero state when the file does not exist yet.
func (s *FileStore) Load() (weather.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return weather.State{}, nil
	}
	if err != nil {
		return weather.State{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	var st weather.State
	if err := json.Unmarshal(data, &st); err != nil {
		return weather.State{}, fmt.Errorf("%w: decode %s: %v", weather.ErrCorruptState, s.path, err)
	}
	return st, nil
}

// Save replaces the file atomically.
func (s *FileStore) Save(st weather.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// MemoryStateStore keeps the state in memory only.
type MemoryStateStore struct {
	mu sync.Mutex
	st weather.State
}

func (s *MemoryStateStore) Load() (weather.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st, nil
}

func (s *MemoryStateStore) Save(st weather.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = st
	return nil
}
