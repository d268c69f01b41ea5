package models

// TaskType identifies the kind of derived training task.
type TaskType string

const (
	TaskSummarization     TaskType = "summarization"
	TaskClassification    TaskType = "classification"
	TaskQuestionAnswering TaskType = "question_answering"
)

// DerivedTask is one synthetic training example generated from an issue.
type DerivedTask struct {
	TaskType TaskType `json:"task_type"`
	Input    string   `json:"input"`
	Target   string   `json:"target"`
}

// RecordMetadata holds the flat metadata extracted from an issue.
// Project is the key prefix before the first "-", or empty when the
// key has no separator.
type RecordMetadata struct {
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Project  string `json:"project"`
}

// RecordContent holds the cleaned free-text content of an issue.
// Comments preserve API order; entries with empty bodies are dropped.
type RecordContent struct {
	Description string   `json:"description"`
	Comments    []string `json:"comments"`
}

// TrainingRecord is the persisted output unit, one JSONL line per issue.
type TrainingRecord struct {
	IssueKey     string         `json:"issue_key"`
	Metadata     RecordMetadata `json:"metadata"`
	Content      RecordContent  `json:"content"`
	DerivedTasks []DerivedTask  `json:"derived_tasks"`
}

// Failure records one issue that could not be transformed, kept in the
// failure log for manual inspection or retry.
type Failure struct {
	Issue string `json:"issue"`
	Error string `json:"error"`
}
