package cssdts

import "github.com/yacobolo/cssdts/internal/report"

// Issue is a single check finding in golangci-lint format.
type Issue = report.Issue

// IssuePos is the location of an issue.
type IssuePos = report.Pos

// Severities.
const (
	SeverityError   = report.SeverityError
	SeverityWarning = report.SeverityWarning
)
