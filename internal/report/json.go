package report

import (
	"io"
	"time"

	"github.com/goccy/go-json"
)

// JSONOutput is the machine readable export schema.
type JSONOutput struct {
	Version   string      `json:"version"`
	Timestamp string      `json:"timestamp"`
	Summary   JSONSummary `json:"summary"`
	Issues    []JSONIssue `json:"issues"`
}

// JSONSummary holds the issue and file counts.
type JSONSummary struct {
	TotalIssues        int `json:"total_issues"`
	Errors             int `json:"errors"`
	Warnings           int `json:"warnings"`
	Truncated          int `json:"truncated"`
	FilesScanned       int `json:"files_scanned"`
	StylesheetsChecked int `json:"stylesheets_checked"`
}

// JSONIssue is one issue in the export.
type JSONIssue struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Linter   string `json:"linter"`
	Source   string `json:"source,omitempty"`
}

// Counts are the file statistics of a check run.
type Counts struct {
	FilesScanned       int
	StylesheetsChecked int
	Truncated          int
}

// WriteJSON writes issues and counts as indented JSON.
func WriteJSON(w io.Writer, issues []Issue, counts Counts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildJSON(issues, counts, time.Now()))
}

// BuildJSON converts issues to the export schema.
func BuildJSON(issues []Issue, counts Counts, now time.Time) JSONOutput {
	errors, warnings := Count(issues)

	out := make([]JSONIssue, len(issues))
	for i, issue := range issues {
		source := ""
		if len(issue.SourceLines) > 0 {
			source = issue.SourceLines[0]
		}
		out[i] = JSONIssue{
			File:     issue.Pos.Filename,
			Line:     issue.Pos.Line,
			Column:   issue.Pos.Column,
			Severity: issue.Severity,
			Message:  issue.Text,
			Linter:   issue.FromLinter,
			Source:   source,
		}
	}

	return JSONOutput{
		Version:   "1.0",
		Timestamp: now.Format(time.RFC3339),
		Summary: JSONSummary{
			TotalIssues:        len(issues),
			Errors:             errors,
			Warnings:           warnings,
			Truncated:          counts.Truncated,
			FilesScanned:       counts.FilesScanned,
			StylesheetsChecked: counts.StylesheetsChecked,
		},
		Issues: out,
	}
}
