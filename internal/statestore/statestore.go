// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package statestore persists entity state snapshots as a CBOR file.
package statestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Thermoquad/smartir/internal/entity"
)

// FormatVersion is the snapshot file version written by this package.
const FormatVersion = 1

// snapshot is the file layout: {1: version, 2: saved_at, 3: {id: state}}
type snapshot struct {
	Version  uint64                  `cbor:"1,keyasint"`
	SavedAt  int64                   `cbor:"2,keyasint"`
	Entities map[string]entity.State `cbor:"3,keyasint"`
}

// Store holds the last known state of every entity. An empty path keeps
// state in memory only.
type Store struct {
	path string
	em   cbor.EncMode

	mu     sync.Mutex
	states map[string]entity.State
}

// Open loads the snapshot at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}
	s := &Store{path: path, em: em, states: make(map[string]entity.State)}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}

	var snap snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode state file %s: %w", path, err)
	}
	if snap.Version != FormatVersion {
		return nil, fmt.Errorf("state file %s: unsupported version %d", path, snap.Version)
	}
	for id, st := range snap.Entities {
		s.states[id] = st
	}
	return s, nil
}

// Get returns the stored state of id.
func (s *Store) Get(id string) (entity.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	if !ok {
		return entity.State{}, false
	}
	return st.Clone(), true
}

// Len returns the number of stored entities.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// Put records the state of id and writes the snapshot file.
func (s *Store) Put(id string, st entity.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[id] = st.Clone()
	return s.writeLocked()
}

// writeLocked replaces the file through a temporary file and rename.
func (s *Store) writeLocked() error {
	if s.path == "" {
		return nil
	}

	data, err := s.em.Marshal(snapshot{
		Version:  FormatVersion,
		SavedAt:  time.Now().Unix(),
		Entities: s.states,
	})
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
