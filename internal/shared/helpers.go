// Package shared provides common utility functions used across multiple
// packages in the hooksync codebase.
package shared

import (
	"regexp"
	"strings"
)

var separatorRuns = regexp.MustCompile(`[-_.]+`)

// NormalizePipName lowercases a Python package name and collapses runs of
// hyphens, underscores and dots into a single hyphen, following PEP 503
// normalization.
func NormalizePipName(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	return separatorRuns.ReplaceAllString(lower, "-")
}
