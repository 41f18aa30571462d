// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists client-side state: the small UI state file
// and the SQLite chat history.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tradelens/tradelens-tui/internal/util"
)

// =============================================================================
// UI STATE
// =============================================================================

// UIState is the persisted chrome state. SidebarCollapsed is the only
// cross-session flag the chrome keeps; everything else resets on start.
type UIState struct {
	SidebarCollapsed bool   `json:"sidebar_collapsed"`
	LastRange        string `json:"last_range,omitempty"`
}

// StateStore reads and writes the UI state file.
type StateStore struct {
	path string
}

// NewStateStore uses the default location ~/.tradelens/state.json.
func NewStateStore() (*StateStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewStateStoreWithPath(filepath.Join(home, ".tradelens", "state.json")), nil
}

// NewStateStoreWithPath uses an explicit file path.
func NewStateStoreWithPath(path string) *StateStore {
	return &StateStore{path: path}
}

// Load reads the state file. A missing or unreadable file yields the
// zero state: chrome preferences are never worth failing startup over.
func (s *StateStore) Load() UIState {
	var state UIState
	data, err := os.ReadFile(s.path)
	if err != nil {
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return UIState{}
	}
	return state
}

// Save writes the state file atomically.
func (s *StateStore) Save(state UIState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return util.AtomicWriteFile(s.path, data, 0600)
}
