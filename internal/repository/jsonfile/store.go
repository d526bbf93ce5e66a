// Package jsonfile persists the bot state as a single JSON document on
// disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/msomdec/birthday-bot/internal/domain"
)

const (
	tmpSuffix       = ".tmp"
	backupSuffix    = ".backup"
	filePermissions = 0o644
)

// Store implements domain.StateStore backed by a JSON file. A missing
// file loads as the empty state. Saves write a temporary file and rename
// it over the original so a crash never leaves a half-written document.
type Store struct {
	mu     sync.RWMutex
	path   string
	backup bool
}

// Option configures a Store.
type Option func(*Store)

// WithBackup keeps a copy of the previous document next to the state
// file on every save.
func WithBackup() Option {
	return func(s *Store) { s.backup = true }
}

// New creates a Store for the file at path.
func New(path string, opts ...Option) *Store {
	s := &Store{path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the state file location.
func (s *Store) Path() string { return s.path }

func (s *Store) Load(ctx context.Context) (*domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return Decode(data)
}

func (s *Store) Save(ctx context.Context, state *domain.State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp := s.path + tmpSuffix
	if err := os.WriteFile(tmp, data, filePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	if s.backup {
		if prev, err := os.ReadFile(s.path); err == nil {
			if err := os.WriteFile(s.path+backupSuffix, prev, filePermissions); err != nil {
				slog.Warn("failed to write state backup", "path", s.path+backupSuffix, "error", err)
			}
		}
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Encode renders state in the on-disk format: indented JSON with a
// trailing newline.
func Encode(state *domain.State) ([]byte, error) {
	if state.Users == nil {
		state = &domain.State{Manager: state.Manager, Users: map[string]domain.Birthday{}}
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses and validates a state document.
func Decode(data []byte) (*domain.State, error) {
	var state domain.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptState, err)
	}
	if state.Users == nil {
		state.Users = make(map[string]domain.Birthday)
	}
	for id, b := range state.Users {
		if b.Day < 0 {
			return nil, fmt.Errorf("%w: negative day for %s", domain.ErrCorruptState, id)
		}
		if b.Day != 0 && b.Month == "" {
			return nil, fmt.Errorf("%w: day without month for %s", domain.ErrCorruptState, id)
		}
	}
	return &state, nil
}
