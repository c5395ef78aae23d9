package analyzer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FJ-cyberzilla/codex/pkg/analyzer/toolset"
)

// parseIssues normalizes a tool's output into Issues according to the
// spec's declared output format. Unparseable JSON degrades to line parsing
// rather than losing the findings.
func parseIssues(spec toolset.ToolSpec, stdout, stderr []byte) []Issue {
	if spec.OutputFormat == toolset.FormatJSON {
		if issues, ok := parseJSONIssues(stdout); ok {
			return capIssues(issues)
		}
	}
	return capIssues(parseLineIssues(stdout, stderr))
}

// pylintFinding matches pylint's --output-format=json entries.
type pylintFinding struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Symbol  string `json:"symbol"`
	Line    int    `json:"line"`
}

// eslintFileResult matches eslint's --format=json per-file entries.
type eslintFileResult struct {
	Messages []struct {
		Severity int    `json:"severity"`
		Message  string `json:"message"`
		RuleID   string `json:"ruleId"`
		Line     int    `json:"line"`
	} `json:"messages"`
}

// parseJSONIssues handles the two JSON dialects the default tool map emits:
// a flat array of findings (pylint) and an array of per-file results with a
// nested messages array (eslint). Distinguished by probing for "messages".
func parseJSONIssues(stdout []byte) ([]Issue, bool) {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 {
		return nil, true
	}

	var eslintResults []eslintFileResult
	if err := json.Unmarshal(trimmed, &eslintResults); err == nil && isESLintShape(trimmed) {
		var issues []Issue
		for _, fr := range eslintResults {
			for _, m := range fr.Messages {
				sev := SeverityWarning
				if m.Severity >= 2 {
					sev = SeverityError
				}
				msg := m.Message
				if m.RuleID != "" {
					msg = fmt.Sprintf("%s (%s)", m.Message, m.RuleID)
				}
				issues = append(issues, Issue{Severity: sev, Message: msg, Line: m.Line})
			}
		}
		return issues, true
	}

	var findings []pylintFinding
	if err := json.Unmarshal(trimmed, &findings); err != nil {
		return nil, false
	}
	var issues []Issue
	for _, f := range findings {
		msg := f.Message
		if f.Symbol != "" {
			msg = fmt.Sprintf("%s (%s)", f.Message, f.Symbol)
		}
		issues = append(issues, Issue{Severity: pylintSeverity(f.Type), Message: msg, Line: f.Line})
	}
	return issues, true
}

// isESLintShape reports whether the document's first object carries a
// "messages" key, the discriminator between eslint and flat-finding arrays.
func isESLintShape(doc []byte) bool {
	var probe []map[string]json.RawMessage
	if err := json.Unmarshal(doc, &probe); err != nil || len(probe) == 0 {
		return false
	}
	_, ok := probe[0]["messages"]
	return ok
}

func pylintSeverity(t string) Severity {
	switch strings.ToLower(t) {
	case "error", "fatal":
		return SeverityError
	case "convention", "refactor", "info":
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

// parseLineIssues treats every non-empty line of either stream as one
// warning-level finding.
func parseLineIssues(stdout, stderr []byte) []Issue {
	var issues []Issue
	for _, stream := range [][]byte{stdout, stderr} {
		sc := bufio.NewScanner(bytes.NewReader(stream))
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			issues = append(issues, Issue{Severity: SeverityWarning, Message: line})
		}
	}
	return issues
}

func capIssues(issues []Issue) []Issue {
	if len(issues) <= maxIssuesPerTool {
		return issues
	}
	capped := issues[:maxIssuesPerTool:maxIssuesPerTool]
	capped = append(capped, Issue{
		Severity: SeverityInfo,
		Message:  fmt.Sprintf("and %d more findings (truncated)", len(issues)-maxIssuesPerTool),
	})
	return capped
}
