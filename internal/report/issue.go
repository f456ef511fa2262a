// Package report formats check issues in golangci-lint style.
package report

import "sort"

// Issue is a single check finding.
type Issue struct {
	FromLinter  string   `json:"FromLinter"`  // checker name, e.g. "stylesheet"
	Text        string   `json:"Text"`        // human readable message
	Severity    string   `json:"Severity"`    // "error" or "warning"
	SourceLines []string `json:"SourceLines"` // lines of code the issue points at
	Pos         Pos      `json:"Pos"`
}

// Pos is where an issue was found.
type Pos struct {
	Filename string `json:"Filename"`
	Line     int    `json:"Line"`
	Column   int    `json:"Column"` // 1-based, 0 when unknown
}

// Severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Checker names.
const (
	LinterResolve = "resolve"
	LinterCompile = "compile"
	LinterStale   = "stale"
)

// Issue messages.
const (
	IssueNotFound     = "stylesheet %q not found"
	IssueCompile      = "stylesheet %q does not compile: %v"
	IssueStale        = "declaration %s is out of date"
	IssueMissingDecl  = "declaration %s is missing"
	IssueNoClassNames = "stylesheet %q exports no class names"
)

// Sort orders issues by file, then line, then column.
func Sort(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i].Pos, issues[j].Pos
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

// Count returns the number of errors and warnings.
func Count(issues []Issue) (errors, warnings int) {
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}
	return errors, warnings
}

// Limit applies the per-checker and same-message caps. Zero disables a
// cap. It returns the kept issues and how many were dropped.
func Limit(issues []Issue, maxPerLinter, maxSame int) ([]Issue, int) {
	original := len(issues)

	if maxPerLinter > 0 {
		perLinter := make(map[string]int)
		kept := issues[:0:0]
		for _, issue := range issues {
			if perLinter[issue.FromLinter] < maxPerLinter {
				kept = append(kept, issue)
				perLinter[issue.FromLinter]++
			}
		}
		issues = kept
	}

	if maxSame > 0 {
		seen := make(map[string]int)
		kept := issues[:0:0]
		for _, issue := range issues {
			if seen[issue.Text] < maxSame {
				kept = append(kept, issue)
				seen[issue.Text]++
			}
		}
		issues = kept
	}

	return issues, original - len(issues)
}
