package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valter-silva-au/jira-harvest/pkg/models"
)

// TransformError reports an issue that could not be transformed. It
// carries the issue key so the caller can record the failure against
// the right issue and keep processing its siblings.
type TransformError struct {
	IssueKey string
	Err      error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transforming issue %s: %v", e.IssueKey, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// Transform maps a raw issue into a training record with cleaned
// content and derived tasks. Extraction failures (malformed field bag,
// wrong types) are returned as a *TransformError; they are never
// swallowed here.
func Transform(issue models.RawIssue) (*models.TrainingRecord, error) {
	key := issue.Key
	if key == "" {
		key = "Unknown"
	}

	var fields models.IssueFields
	if len(issue.Fields) > 0 {
		if err := json.Unmarshal(issue.Fields, &fields); err != nil {
			return nil, &TransformError{IssueKey: key, Err: fmt.Errorf("decoding fields: %w", err)}
		}
	}

	title := CleanText(fields.Summary)
	description := CleanText(fields.Description)

	status := ""
	if fields.Status != nil {
		status = fields.Status.Name
	}
	priority := ""
	if fields.Priority != nil {
		priority = fields.Priority.Name
	}

	comments := extractComments(&fields)

	record := &models.TrainingRecord{
		IssueKey: issue.Key,
		Metadata: models.RecordMetadata{
			Title:    title,
			Status:   status,
			Priority: priority,
			Project:  projectPrefix(issue.Key),
		},
		Content: models.RecordContent{
			Description: description,
			Comments:    comments,
		},
		DerivedTasks: deriveTasks(title, description, priority, comments),
	}

	return record, nil
}

// projectPrefix returns the key prefix before the first "-", or empty
// when the key has no separator.
func projectPrefix(key string) string {
	if i := strings.Index(key, "-"); i >= 0 {
		return key[:i]
	}
	return ""
}

// extractComments cleans every comment body in API order, skipping
// entries whose body is empty or absent.
func extractComments(fields *models.IssueFields) []string {
	comments := []string{}
	if fields.Comment == nil {
		return comments
	}
	for _, c := range fields.Comment.Comments {
		if c.Body == "" {
			continue
		}
		comments = append(comments, CleanText(c.Body))
	}
	return comments
}

// deriveTasks generates training tasks in a fixed order, each appended
// only when its precondition holds:
//
//  1. summarization       - title and description both non-empty
//  2. classification      - the above, and priority non-empty
//  3. question_answering  - title and description non-empty, and at
//     least one comment exists
func deriveTasks(title, description, priority string, comments []string) []models.DerivedTask {
	tasks := []models.DerivedTask{}

	if title != "" && description != "" {
		input := fmt.Sprintf("Title: %s\nDescription: %s", title, description)
		tasks = append(tasks, models.DerivedTask{
			TaskType: models.TaskSummarization,
			Input:    input,
			Target:   fmt.Sprintf("Summarize: %s", title),
		})
		if priority != "" {
			tasks = append(tasks, models.DerivedTask{
				TaskType: models.TaskClassification,
				Input:    input,
				Target:   priority,
			})
		}
		if len(comments) > 0 {
			tasks = append(tasks, models.DerivedTask{
				TaskType: models.TaskQuestionAnswering,
				Input:    fmt.Sprintf("Question: %s\nContext: %s", title, description),
				Target:   comments[0],
			})
		}
	}

	return tasks
}
