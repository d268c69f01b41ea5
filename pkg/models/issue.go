package models

import "encoding/json"

// RawIssue is one issue as returned by the tracker's search endpoint.
// The field bag is kept opaque at fetch time so that a malformed issue
// only fails when it is transformed, not when its page is decoded.
type RawIssue struct {
	Key    string          `json:"key"`
	Fields json.RawMessage `json:"fields"`
}

// IssueFields is the typed view of a raw issue's field bag, decoded
// per issue by the transformer.
type IssueFields struct {
	Summary     string      `json:"summary"`
	Description string      `json:"description"`
	Status      *NamedField `json:"status"`
	Priority    *NamedField `json:"priority"`
	Assignee    *UserField  `json:"assignee"`
	Reporter    *UserField  `json:"reporter"`
	Created     string      `json:"created"`
	Updated     string      `json:"updated"`
	Labels      []string    `json:"labels"`
	Comment     *CommentBag `json:"comment"`
}

// NamedField is the {"name": ...} shape Jira uses for status and priority.
type NamedField struct {
	Name string `json:"name"`
}

// UserField is the subset of Jira's user object the harvester cares about.
type UserField struct {
	DisplayName string `json:"displayName"`
}

// CommentBag wraps the nested comment container on an issue.
type CommentBag struct {
	Comments []Comment `json:"comments"`
}

// Comment is a single issue comment.
type Comment struct {
	Body string `json:"body"`
}
