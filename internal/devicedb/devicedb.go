// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package devicedb resolves device codes to definitions.
package devicedb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Thermoquad/smartir/pkg/climate"
)

// DB looks devices up in the builtin registry first, then in
// <dir>/climate/<code>.json. Decoded files are cached.
type DB struct {
	builtin *climate.Registry
	dir     string

	mu    sync.Mutex
	cache map[int]*climate.Device
}

// New creates a device database over dir. An empty dir disables file lookup.
func New(dir string) *DB {
	return &DB{
		builtin: climate.Builtin(),
		dir:     dir,
		cache:   make(map[int]*climate.Device),
	}
}

func (db *DB) path(code int) string {
	return filepath.Join(db.dir, "climate", strconv.Itoa(code)+".json")
}

// Lookup returns the definition for code.
func (db *DB) Lookup(code int) (*climate.Device, error) {
	if d, err := db.builtin.Lookup(code); err == nil {
		return d, nil
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if d, ok := db.cache[code]; ok {
		return d, nil
	}
	if db.dir == "" {
		return nil, fmt.Errorf("%w: %d", climate.ErrUnknownDevice, code)
	}

	f, err := os.Open(db.path(code))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %d (no file in %s)", climate.ErrUnknownDevice, code, db.dir)
	} else if err != nil {
		return nil, fmt.Errorf("failed to open device %d: %w", code, err)
	}
	defer f.Close()

	d, err := climate.DecodeDefinition(code, f)
	if err != nil {
		return nil, err
	}
	db.cache[code] = d
	return d, nil
}

// Codes lists every known device code: builtin and file based, ascending.
func (db *DB) Codes() ([]int, error) {
	seen := make(map[int]bool)
	for _, c := range db.builtin.Codes() {
		seen[c] = true
	}

	if db.dir != "" {
		entries, err := os.ReadDir(filepath.Join(db.dir, "climate"))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to list devices: %w", err)
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, ".json") {
				continue
			}
			if c, err := strconv.Atoi(strings.TrimSuffix(name, ".json")); err == nil && c > 0 {
				seen[c] = true
			}
		}
	}

	codes := make([]int, 0, len(seen))
	for c := range seen {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes, nil
}
