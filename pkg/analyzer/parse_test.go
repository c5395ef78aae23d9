package analyzer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FJ-cyberzilla/codex/pkg/analyzer/toolset"
)

func TestParseIssuesPylintJSON(t *testing.T) {
	spec := toolset.ToolSpec{Name: "pylint", OutputFormat: toolset.FormatJSON}
	stdout := []byte(`[
		{"type": "error", "message": "undefined variable 'x'", "symbol": "undefined-variable", "line": 12},
		{"type": "convention", "message": "missing docstring", "symbol": "missing-docstring", "line": 1}
	]`)

	issues := parseIssues(spec, stdout, nil)
	require.Len(t, issues, 2)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Equal(t, "undefined variable 'x' (undefined-variable)", issues[0].Message)
	assert.Equal(t, 12, issues[0].Line)
	assert.Equal(t, SeverityInfo, issues[1].Severity)
}

func TestParseIssuesESLintJSON(t *testing.T) {
	spec := toolset.ToolSpec{Name: "eslint", OutputFormat: toolset.FormatJSON}
	stdout := []byte(`[
		{"filePath": "/repo/app.js", "messages": [
			{"severity": 2, "message": "unexpected console", "ruleId": "no-console", "line": 3},
			{"severity": 1, "message": "unused var", "ruleId": "no-unused-vars", "line": 7}
		]}
	]`)

	issues := parseIssues(spec, stdout, nil)
	require.Len(t, issues, 2)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Equal(t, "unexpected console (no-console)", issues[0].Message)
	assert.Equal(t, 3, issues[0].Line)
	assert.Equal(t, SeverityWarning, issues[1].Severity)
}

func TestParseIssuesEmptyJSONArrayMeansClean(t *testing.T) {
	spec := toolset.ToolSpec{Name: "pylint", OutputFormat: toolset.FormatJSON}
	assert.Empty(t, parseIssues(spec, []byte("[]"), nil))
	assert.Empty(t, parseIssues(spec, []byte("  \n"), nil))
}

func TestParseIssuesMalformedJSONFallsBackToLines(t *testing.T) {
	spec := toolset.ToolSpec{Name: "pylint", OutputFormat: toolset.FormatJSON}
	stdout := []byte("not json at all\nsecond line\n")

	issues := parseIssues(spec, stdout, nil)
	require.Len(t, issues, 2)
	assert.Equal(t, "not json at all", issues[0].Message)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
}

func TestParseIssuesLines(t *testing.T) {
	spec := toolset.ToolSpec{Name: "shellcheck", OutputFormat: toolset.FormatLines}
	stdout := []byte("warning one\n\n  warning two  \n")
	stderr := []byte("stderr finding\n")

	issues := parseIssues(spec, stdout, stderr)
	require.Len(t, issues, 3)
	assert.Equal(t, "warning one", issues[0].Message)
	assert.Equal(t, "warning two", issues[1].Message)
	assert.Equal(t, "stderr finding", issues[2].Message)
}

func TestParseIssuesCapped(t *testing.T) {
	spec := toolset.ToolSpec{Name: "noisy", OutputFormat: toolset.FormatLines}
	var sb strings.Builder
	for i := 0; i < maxIssuesPerTool+50; i++ {
		fmt.Fprintf(&sb, "finding %d\n", i)
	}

	issues := parseIssues(spec, []byte(sb.String()), nil)
	require.Len(t, issues, maxIssuesPerTool+1)
	last := issues[len(issues)-1]
	assert.Equal(t, SeverityInfo, last.Severity)
	assert.Contains(t, last.Message, "50 more findings")
}

func TestBuildArgv(t *testing.T) {
	t.Run("placeholder substituted", func(t *testing.T) {
		spec := toolset.ToolSpec{Command: []string{"go", "vet", toolset.FilePlaceholder}}
		assert.Equal(t, []string{"go", "vet", "/tmp/x.go"}, buildArgv(spec, "/tmp/x.go"))
	})

	t.Run("path appended without placeholder", func(t *testing.T) {
		spec := toolset.ToolSpec{Command: []string{"black", "-q"}}
		assert.Equal(t, []string{"black", "-q", "/tmp/x.py"}, buildArgv(spec, "/tmp/x.py"))
	})
}
