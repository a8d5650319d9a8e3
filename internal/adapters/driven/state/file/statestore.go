// Package file provides the JSON-backed sync state store. The whole
// state is one document mapping source keys to their fingerprint and
// chunk fan-out, written once per sync pass.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/openclaw/ragmem/internal/core/domain"
	"github.com/openclaw/ragmem/internal/core/ports/driven"
	"github.com/openclaw/ragmem/internal/logger"
)

// Ensure StateStore implements the interface.
var _ driven.SyncStateStore = (*StateStore)(nil)

// DefaultStateFile is the state file name under the workspace root.
const DefaultStateFile = ".ragmem-state.json"

// StateStore persists the sync state document to a single JSON file.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore creates a store writing to the given path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Load reads the persisted state. A missing file yields an empty
// state; a corrupt file is discarded with a warning so the next sync
// pass can rebuild it.
func (s *StateStore) Load(_ context.Context) (*domain.SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewSyncState(), nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var state domain.SyncState
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Warn("Discarding corrupt state file %s: %v", s.path, err)
		return domain.NewSyncState(), nil
	}
	if state.Documents == nil {
		state.Documents = make(map[string]domain.SyncRecord)
	}
	return &state, nil
}

// Save stamps the sync time and writes the full state document. The
// write goes through a temp file so a crash never leaves a truncated
// state behind.
func (s *StateStore) Save(_ context.Context, state *domain.SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.LastSync = time.Now().UTC()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
