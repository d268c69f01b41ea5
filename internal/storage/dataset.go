package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valter-silva-au/jira-harvest/pkg/models"
)

// DatasetWriter opens per-project JSONL output files under a single
// output directory.
type DatasetWriter interface {
	// Open returns a writer for the given project's dataset file,
	// creating the output directory if needed. The file is opened in
	// append mode so a resumed run accumulates records instead of
	// discarding earlier pages.
	Open(project string) (ProjectWriter, error)
	// Path returns the dataset file path for a project.
	Path(project string) string
}

// ProjectWriter writes training records as newline-delimited JSON.
type ProjectWriter interface {
	Write(record *models.TrainingRecord) error
	Close() error
}

type fileDatasetWriter struct {
	outputDir string
}

// NewDatasetWriter creates a DatasetWriter rooted at outputDir.
func NewDatasetWriter(outputDir string) DatasetWriter {
	return &fileDatasetWriter{outputDir: outputDir}
}

func (w *fileDatasetWriter) Path(project string) string {
	return filepath.Join(w.outputDir, strings.ToLower(project)+"_issues.jsonl")
}

func (w *fileDatasetWriter) Open(project string) (ProjectWriter, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("opening dataset for %s: creating output dir: %w", project, err)
	}

	f, err := os.OpenFile(w.Path(project), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening dataset for %s: %w", project, err)
	}

	enc := json.NewEncoder(f)
	// Keep <, >, & and non-ASCII text as-is; the dataset is consumed by
	// training pipelines, not browsers.
	enc.SetEscapeHTML(false)

	return &projectWriter{file: f, enc: enc}, nil
}

type projectWriter struct {
	file *os.File
	enc  *json.Encoder
}

// Write appends one record as a single JSON line.
func (pw *projectWriter) Write(record *models.TrainingRecord) error {
	if err := pw.enc.Encode(record); err != nil {
		return fmt.Errorf("writing record %s: %w", record.IssueKey, err)
	}
	return nil
}

func (pw *projectWriter) Close() error {
	if err := pw.file.Close(); err != nil {
		return fmt.Errorf("closing dataset file: %w", err)
	}
	return nil
}
