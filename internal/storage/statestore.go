// Package storage provides the durable file-backed stores used by a
// harvest run: the resume state, the failure log, and the JSONL dataset
// output.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// stateFileName is the resume state file kept in the base directory.
const stateFileName = "state.json"

// StateManager defines the interface for persisting and reloading the
// per-project resume offset. Offsets count issues already processed and
// never regress within a run.
type StateManager interface {
	// Load reads durable state. A missing or corrupt state file yields
	// an empty mapping without error.
	Load() error
	// Offset returns the resume offset for a project, 0 if unseen.
	Offset(project string) int
	// SetOffset records a new offset for a project. Attempts to move an
	// offset backwards are ignored.
	SetOffset(project string, offset int)
	// Offsets returns a copy of the full project -> offset mapping.
	Offsets() map[string]int
	// Save writes the full mapping durably, overwriting the state file.
	Save() error
}

type fileStateStore struct {
	basePath string
	offsets  map[string]int
}

// NewStateManager creates a StateManager backed by state.json in the
// given base directory.
func NewStateManager(basePath string) StateManager {
	return &fileStateStore{
		basePath: basePath,
		offsets:  make(map[string]int),
	}
}

func (s *fileStateStore) path() string {
	return filepath.Join(s.basePath, stateFileName)
}

// Load reads the state file. Missing or corrupt files are treated as an
// empty mapping so a fresh or damaged workspace starts from offset 0.
func (s *fileStateStore) Load() error {
	s.offsets = make(map[string]int)

	data, err := os.ReadFile(s.path())
	if err != nil {
		return nil
	}

	var offsets map[string]int
	if err := json.Unmarshal(data, &offsets); err != nil {
		return nil
	}

	for project, offset := range offsets {
		if offset < 0 {
			continue
		}
		s.offsets[project] = offset
	}
	return nil
}

func (s *fileStateStore) Offset(project string) int {
	return s.offsets[project]
}

func (s *fileStateStore) SetOffset(project string, offset int) {
	if offset < s.offsets[project] {
		return
	}
	s.offsets[project] = offset
}

func (s *fileStateStore) Offsets() map[string]int {
	out := make(map[string]int, len(s.offsets))
	for project, offset := range s.offsets {
		out[project] = offset
	}
	return out
}

// Save overwrites the state file with the current mapping.
func (s *fileStateStore) Save() error {
	data, err := json.Marshal(s.offsets)
	if err != nil {
		return fmt.Errorf("saving state: marshalling offsets: %w", err)
	}
	if err := os.WriteFile(s.path(), data, 0o644); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}
