// Package store persists channel positions as a flat JSON file.
// Saves are atomic: the full mapping is written to a temporary file which
// is then renamed over the live file, so a crash mid-write never corrupts
// the previously committed state.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Store reads and writes the channel->position mapping on disk.
// Save calls are serialized by an internal mutex; the in-memory mapping
// held by the dispatcher stays authoritative between saves.
type Store struct {
	path string
	mu   sync.Mutex
}

// Open creates a Store for the given file path, creating the parent
// directory if needed. The file itself is created on first Save.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}
	return &Store{path: path}, nil
}

// Load reads the persisted mapping. A missing file is not an error and
// yields an empty mapping; a present but unreadable or malformed file is.
func (s *Store) Load() (map[int]int, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[int]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", s.path, err)
	}

	positions := make(map[int]int, len(raw))
	for key, pos := range raw {
		nr, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("parse state file %s: channel key %q: %w", s.path, key, err)
		}
		positions[nr] = pos
	}
	return positions, nil
}

// Save writes the full mapping to disk atomically.
func (s *Store) Save(positions map[int]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := make(map[string]int, len(positions))
	for nr, pos := range positions {
		raw[strconv.Itoa(nr)] = pos
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("commit state file: %w", err)
	}
	return nil
}

// Path returns the state file location.
func (s *Store) Path() string {
	return s.path
}
