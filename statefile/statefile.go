// Package statefile persists whole-state snapshots as human-readable JSON.
//
// Every component that survives restart (risk metrics, execution mode, the
// paper ledger) serializes its complete state through a Store. Writes go to
// a temp file in the same directory followed by an atomic rename, so a
// concurrent reader of the file never observes a partially-written
// document. A missing file is first-run, not an error.
package statefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Store[T any] struct {
	path string
}

func NewStore[T any](path string) *Store[T] {
	return &Store[T]{path: path}
}

func (s *Store[T]) Path() string { return s.path }

// Load reads the snapshot at the store's path. The second return value is
// false when the file does not exist yet.
func (s *Store[T]) Load() (T, bool, error) {
	var state T

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, false, nil
		}
		return state, false, fmt.Errorf("read state file: %w", err)
	}

	if err := json.Unmarshal(data, &state); err != nil {
		return state, false, fmt.Errorf("parse state file %s: %w", s.path, err)
	}
	return state, true, nil
}

// Save serializes state and commits it with a rename. The 2-space indent
// keeps the files inspectable by hand.
func (s *Store[T]) Save(state T) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit state file: %w", err)
	}
	return nil
}
