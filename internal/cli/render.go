package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/FJ-cyberzilla/codex/pkg/analyzer"
	"github.com/FJ-cyberzilla/codex/pkg/analyzer/history"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// RenderText writes the human-readable run summary: per-file verdicts with
// their findings, aggregate counters, the trend against the previous run,
// and the merge-gate verdict.
func RenderText(w io.Writer, report analyzer.RunReport, trend history.Trend) {
	fmt.Fprintln(w, headerStyle.Render("Analysis Report"))
	fmt.Fprintln(w)

	for _, fr := range report.Files {
		mark := passStyle.Render("✓")
		if fr.Status != analyzer.FilePassed {
			mark = failStyle.Render("✗")
		}
		suffix := ""
		if fr.WasFixed {
			suffix = dimStyle.Render(" (fixed)")
		}
		if fr.Status == analyzer.FileFixError {
			suffix = warnStyle.Render(" (fix failed, rolled back)")
		}
		fmt.Fprintf(w, "%s %s %s%s\n", mark, fr.Path, dimStyle.Render("["+fr.Language+"]"), suffix)

		if fr.Status == analyzer.FilePassed {
			continue
		}
		for _, o := range fr.Outcomes {
			if o.Status == analyzer.ToolOK {
				continue
			}
			for _, issue := range o.Issues {
				loc := ""
				if issue.Line > 0 {
					loc = fmt.Sprintf(":%d", issue.Line)
				}
				fmt.Fprintf(w, "    %s%s %s %s\n",
					dimStyle.Render(o.Tool), loc, severityLabel(issue.Severity), issue.Message)
			}
		}
	}

	s := report.Summary
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Files: %d  Passed: %d  Failed: %d  Fix errors: %d  Fixed: %d",
		s.TotalFiles, s.Passed, s.Failed, s.FixErrors, s.Fixed)
	if s.NotStarted > 0 {
		fmt.Fprintf(w, "  Not started: %d", s.NotStarted)
	}
	fmt.Fprintf(w, "  (%.2fs)\n", s.DurationSeconds)

	if trend != history.TrendUnknown {
		fmt.Fprintf(w, "Trend: %s\n", trendLabel(trend))
	}

	fmt.Fprintln(w)
	switch {
	case s.Interrupted:
		fmt.Fprintln(w, warnStyle.Render("RUN INTERRUPTED: results are partial."))
	case s.OverallSuccess:
		fmt.Fprintln(w, passStyle.Render("ALL CHECKS PASSED."))
	default:
		fmt.Fprintln(w, failStyle.Render("MERGE BLOCKED: fix the issues above."))
	}
}

func severityLabel(s analyzer.Severity) string {
	switch s {
	case analyzer.SeverityError:
		return failStyle.Render("error:")
	case analyzer.SeverityInfo:
		return dimStyle.Render("info:")
	default:
		return warnStyle.Render("warning:")
	}
}

func trendLabel(t history.Trend) string {
	switch t {
	case history.TrendImproved:
		return passStyle.Render("improved")
	case history.TrendDegraded:
		return failStyle.Render("degraded")
	default:
		return dimStyle.Render("stable")
	}
}

// WriteJSON streams the report as indented JSON.
func WriteJSON(w io.Writer, report analyzer.RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// ExportJSONReport persists the report under outputDir with a
// timestamp-derived name and returns the path written.
func ExportJSONReport(outputDir string, report analyzer.RunReport) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory %s: %w", outputDir, err)
	}
	name := fmt.Sprintf("codex_report_%d.json", report.Summary.Timestamp.Unix())
	path := filepath.Join(outputDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	if err := WriteJSON(f, report); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// RenderHistory writes the recorded runs, newest last, with failure deltas.
func RenderHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return
	}
	fmt.Fprintln(w, headerStyle.Render("Run History"))
	prevFailed := -1
	for _, e := range entries {
		delta := ""
		if prevFailed >= 0 {
			switch {
			case e.Failed < prevFailed:
				delta = passStyle.Render(" ↓")
			case e.Failed > prevFailed:
				delta = failStyle.Render(" ↑")
			}
		}
		mode := "check"
		if e.FixMode {
			mode = "fix"
		}
		fmt.Fprintf(w, "%s  %-5s files=%-4d passed=%-4d failed=%-4d fixed=%-4d %s%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"), mode,
			e.TotalFiles, e.Passed, e.Failed, e.Fixed,
			dimStyle.Render(shortPath(e.TargetPath)), delta)
		prevFailed = e.Failed
	}
}

func shortPath(p string) string {
	if home, err := os.UserHomeDir(); err == nil && strings.HasPrefix(p, home) {
		return "~" + p[len(home):]
	}
	return p
}
