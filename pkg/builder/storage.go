package builder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"mon-launch/pkg/types"
)

const (
	DefaultStorageDirName = ".mon-launch"

	batchesFileName = "batches.json"
)

// Store persists builder state, build logs and concept batches as JSON files
// under one directory, keyed by concept ID. Writes go through a temp file and
// rename so a crash never leaves a half-written record.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates the storage directory if needed. An empty dir defaults to
// ~/.mon-launch.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, DefaultStorageDirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) statePath(conceptID string) string {
	return filepath.Join(s.dir, "state-"+conceptID+".json")
}

func (s *Store) logPath(conceptID string) string {
	return filepath.Join(s.dir, "log-"+conceptID+".json")
}

// SaveState writes the whole builder state for a concept.
func (s *Store) SaveState(conceptID string, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeJSON(s.statePath(conceptID), envelope{Version: stateVersion, State: *state})
}

// LoadState restores a concept's builder state. The second return reports
// whether any state existed.
func (s *Store) LoadState(conceptID string) (*State, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.statePath(conceptID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read builder state: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal builder state: %w", err)
	}

	state, err := migrate(env)
	if err != nil {
		return nil, false, err
	}

	return &state, true, nil
}

// SaveLog writes a concept's build log.
func (s *Store) SaveLog(conceptID string, entries []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeJSON(s.logPath(conceptID), entries)
}

// LoadLog restores a concept's build log; a missing file is an empty log.
func (s *Store) LoadLog(conceptID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.logPath(conceptID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read build log: %w", err)
	}

	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal build log: %w", err)
	}

	return entries, nil
}

// Clear removes all persisted records for a concept.
func (s *Store) Clear(conceptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range []string{s.statePath(conceptID), s.logPath(conceptID)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to clear %s: %w", filepath.Base(path), err)
		}
	}

	return nil
}

// SaveBatches writes the list of generated concept batches.
func (s *Store) SaveBatches(batches []types.ConceptBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeJSON(filepath.Join(s.dir, batchesFileName), batches)
}

// LoadBatches restores the concept batch list.
func (s *Store) LoadBatches() ([]types.ConceptBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.dir, batchesFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read concept batches: %w", err)
	}

	var batches []types.ConceptBatch
	if err := json.Unmarshal(data, &batches); err != nil {
		return nil, fmt.Errorf("failed to unmarshal concept batches: %w", err)
	}

	return batches, nil
}

// FindConcept looks a concept up across all stored batches.
func (s *Store) FindConcept(conceptID string) (*types.Concept, error) {
	batches, err := s.LoadBatches()
	if err != nil {
		return nil, err
	}

	for _, batch := range batches {
		for i := range batch.Concepts {
			if batch.Concepts[i].ID == conceptID {
				return &batch.Concepts[i], nil
			}
		}
	}

	return nil, fmt.Errorf("concept '%s' not found", conceptID)
}

func (s *Store) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
