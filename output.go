package cssdts

import (
	"io"

	"github.com/yacobolo/cssdts/internal/report"
)

// OutputFormat selects how a check result is written.
type OutputFormat int

// Output formats.
const (
	OutputIssues OutputFormat = iota // golangci-lint style issues and summary
	OutputJSON                       // machine readable
)

// OutputConfig controls issue printing.
type OutputConfig struct {
	PrintIssuedLines bool // show source lines with issues
	PrintLinterName  bool // show the (checker) suffix
	UseColors        bool // force colors
}

// DetermineOutputFormat maps a format name to an OutputFormat. Unknown
// names fall back to issues.
func DetermineOutputFormat(name string) OutputFormat {
	switch name {
	case "json":
		return OutputJSON
	default:
		return OutputIssues
	}
}

// WriteOutput writes result in the given format.
func WriteOutput(w io.Writer, result *CheckResult, format OutputFormat, cfg OutputConfig) error {
	switch format {
	case OutputJSON:
		return report.WriteJSON(w, result.Issues, report.Counts{
			FilesScanned:       result.FilesScanned,
			StylesheetsChecked: result.StylesheetsChecked,
			Truncated:          result.TruncatedCount,
		})
	default:
		r := report.NewReporter(w, report.Options{
			UseColors:       cfg.UseColors,
			PrintLines:      cfg.PrintIssuedLines,
			PrintLinterName: cfg.PrintLinterName,
		})
		r.PrintIssues(result.Issues)
		r.PrintSummary(report.Summary{Issues: result.Issues, Truncated: result.TruncatedCount})
		return nil
	}
}
