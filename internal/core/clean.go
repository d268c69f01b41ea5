// Package core contains the business logic for jira-harvest: text
// cleaning, issue transformation, configuration, and the harvest
// pipeline that ties fetching, transforming, and persistence together.
package core

import "strings"

// CleanText collapses every run of whitespace (spaces, tabs, newlines)
// into a single space and trims leading and trailing whitespace.
// Empty input yields an empty string. The function is pure and
// idempotent.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
