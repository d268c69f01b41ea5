package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/jira-harvest/pkg/models"
)

// failureFileName is the failure log kept in the base directory.
const failureFileName = "failed.json"

// FailureLog records issues that could not be transformed. The file is
// a single JSON array rewritten on every append; it is never read back
// by the pipeline itself, only by the failures command for manual
// inspection and retry.
type FailureLog interface {
	Append(issueKey, errMsg string) error
	List() ([]models.Failure, error)
}

type fileFailureLog struct {
	basePath string
}

// NewFailureLog creates a FailureLog backed by failed.json in the given
// base directory.
func NewFailureLog(basePath string) FailureLog {
	return &fileFailureLog{basePath: basePath}
}

func (l *fileFailureLog) path() string {
	return filepath.Join(l.basePath, failureFileName)
}

// Append reads the existing log, appends one failure, and rewrites the
// full array.
func (l *fileFailureLog) Append(issueKey, errMsg string) error {
	failures, err := l.List()
	if err != nil {
		return err
	}

	failures = append(failures, models.Failure{Issue: issueKey, Error: errMsg})

	data, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("appending failure: marshalling log: %w", err)
	}
	if err := os.WriteFile(l.path(), data, 0o644); err != nil {
		return fmt.Errorf("appending failure: %w", err)
	}
	return nil
}

// List returns all recorded failures. A missing or corrupt file yields
// an empty list without error so a damaged log never blocks new appends.
func (l *fileFailureLog) List() ([]models.Failure, error) {
	data, err := os.ReadFile(l.path())
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Failure{}, nil
		}
		return nil, fmt.Errorf("reading failure log: %w", err)
	}

	var failures []models.Failure
	if err := json.Unmarshal(data, &failures); err != nil {
		return []models.Failure{}, nil
	}
	return failures, nil
}
