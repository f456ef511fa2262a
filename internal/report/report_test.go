package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCaretIndicator(t *testing.T) {
	tests := []struct {
		name       string
		sourceLine string
		column     int
		want       string
	}{
		{
			name:       "spaces only",
			sourceLine: `  import s from "./a.css"`,
			column:     17,
			want:       "                ^",
		},
		{
			name:       "tabs and spaces",
			sourceLine: "\t\timport s from './a.css'",
			column:     17,
			want:       "\t\t              ^",
		},
		{
			name:       "start of line",
			sourceLine: `require("./a.css")`,
			column:     1,
			want:       "^",
		},
		{
			name:       "column 0 fallback",
			sourceLine: "some line",
			column:     0,
			want:       "^",
		},
		{
			name:       "column beyond line length",
			sourceLine: "short",
			column:     100,
			want:       "     ^",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, buildCaretIndicator(tt.sourceLine, tt.column))
		})
	}
}

func issue(linter, text, file string, line int) Issue {
	return Issue{FromLinter: linter, Text: text, Severity: SeverityError, Pos: Pos{Filename: file, Line: line, Column: 1}}
}

func TestLimit(t *testing.T) {
	issues := []Issue{
		issue(LinterResolve, "a", "x.ts", 1),
		issue(LinterResolve, "a", "x.ts", 2),
		issue(LinterResolve, "a", "x.ts", 3),
		issue(LinterResolve, "b", "x.ts", 4),
		issue(LinterCompile, "c", "y.ts", 1),
	}

	tests := []struct {
		name         string
		maxPerLinter int
		maxSame      int
		wantTexts    []string
		wantDropped  int
	}{
		{name: "no caps", wantTexts: []string{"a", "a", "a", "b", "c"}},
		{name: "per linter", maxPerLinter: 2, wantTexts: []string{"a", "a", "c"}, wantDropped: 2},
		{name: "same message", maxSame: 1, wantTexts: []string{"a", "b", "c"}, wantDropped: 2},
		{name: "both", maxPerLinter: 3, maxSame: 2, wantTexts: []string{"a", "a", "c"}, wantDropped: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, dropped := Limit(issues, tt.maxPerLinter, tt.maxSame)
			texts := make([]string, len(kept))
			for i, k := range kept {
				texts[i] = k.Text
			}
			assert.Equal(t, tt.wantTexts, texts)
			assert.Equal(t, tt.wantDropped, dropped)
		})
	}
	assert.Len(t, issues, 5, "input must not be modified")
}

func TestReporter_PrintIssues(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, Options{PrintLines: true, PrintLinterName: true})
	r.useColors = false

	r.PrintIssues([]Issue{
		{
			FromLinter:  LinterResolve,
			Text:        `stylesheet "./b.css" not found`,
			Severity:    SeverityError,
			SourceLines: []string{`import b from "./b.css"`},
			Pos:         Pos{Filename: "src/x.ts", Line: 2, Column: 15},
		},
		issue(LinterCompile, "broken", "src/a.ts", 9),
	})

	want := "src/a.ts:9:1: broken (compile)\n" +
		"src/x.ts:2:15: stylesheet \"./b.css\" not found (resolve)\n" +
		"\timport b from \"./b.css\"\n" +
		"\t              ^\n"
	assert.Equal(t, want, buf.String())
}

func TestReporter_PrintSummary(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, Options{})
	r.useColors = false

	warn := issue(LinterStale, "old", "a.css", 1)
	warn.Severity = SeverityWarning
	r.PrintSummary(Summary{
		Issues:    []Issue{issue(LinterResolve, "a", "x.ts", 1), warn},
		Truncated: 1,
	})

	out := buf.String()
	assert.Contains(t, out, "2 issues (1 error, 1 warning, 1 issue truncated):\n")
	assert.Contains(t, out, "* resolve: 1\n* stale: 1\n")
	assert.Contains(t, out, "Hint:")
}

func TestWriteJSON(t *testing.T) {
	issues := []Issue{issue(LinterResolve, "missing", "x.ts", 3)}
	issues[0].SourceLines = []string{"import './m.css'"}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, issues, Counts{FilesScanned: 4, StylesheetsChecked: 2}))

	var got JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "1.0", got.Version)
	assert.Equal(t, 1, got.Summary.Errors)
	assert.Equal(t, 4, got.Summary.FilesScanned)
	require.Len(t, got.Issues, 1)
	assert.Equal(t, "import './m.css'", got.Issues[0].Source)

	_, err := time.Parse(time.RFC3339, got.Timestamp)
	assert.NoError(t, err)
}
