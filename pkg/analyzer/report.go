package analyzer

import (
	"sort"
	"time"

	"github.com/FJ-cyberzilla/codex/pkg/analyzer/toolset"
)

// Issue is one normalized finding extracted from a tool's output.
type Issue struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Line     int      `json:"line,omitempty"`
}

// ToolOutcome records a single tool invocation against a single file.
type ToolOutcome struct {
	Tool     string        `json:"tool"`
	Role     string        `json:"role"`
	Status   ToolStatus    `json:"status"`
	Issues   []Issue       `json:"issues,omitempty"`
	Duration time.Duration `json:"durationMs"`
}

// FileReport is the complete per-file result: the ordered outcomes of every
// tool in the file's chain plus the derived file status.
type FileReport struct {
	// Path is repository-relative with forward slashes, regardless of OS.
	Path     string        `json:"path"`
	Language string        `json:"language"`
	Status   FileStatus    `json:"status"`
	Outcomes []ToolOutcome `json:"outcomes"`
	// WasFixed is set when a fix tool ran to completion and its changes were
	// committed (the backup discarded).
	WasFixed bool          `json:"wasFixed"`
	Duration time.Duration `json:"durationMs"`
}

// RunSummary carries the aggregate counters for one engine run.
type RunSummary struct {
	SchemaVersion string    `json:"schemaVersion"`
	Timestamp     time.Time `json:"timestamp"`
	TargetPath    string    `json:"targetPath"`
	TotalFiles    int       `json:"totalFiles"`
	Passed        int       `json:"passed"`
	Failed        int       `json:"failed"`
	FixErrors     int       `json:"fixErrors"`
	Fixed         int       `json:"fixed"`
	// NotStarted counts files discovered but never processed because the run
	// was interrupted before a worker picked them up.
	NotStarted      int     `json:"notStarted"`
	DurationSeconds float64 `json:"durationSeconds"`
	Concurrency     int     `json:"concurrency"`
	FixMode         bool    `json:"fixMode"`
	Interrupted     bool    `json:"interrupted"`
	OverallSuccess  bool    `json:"overallSuccess"`
}

// RunReport is the final artifact of a run: summary plus every per-file
// report sorted lexicographically by path so output is deterministic across
// worker scheduling.
type RunReport struct {
	Summary RunSummary   `json:"summary"`
	Files   []FileReport `json:"files"`
}

// reportAggregator collects FileReports from workers. Workers send over a
// channel; only the aggregator goroutine touches the slice, so no lock is
// needed until finalize copies the counters out.
type reportAggregator struct {
	files []FileReport
}

func newReportAggregator() *reportAggregator {
	return &reportAggregator{}
}

func (a *reportAggregator) add(fr FileReport) {
	a.files = append(a.files, fr)
}

// finalize sorts the collected reports and derives the summary. discovered is
// the total number of files handed to workers; the gap between discovered and
// len(files) becomes NotStarted.
func (a *reportAggregator) finalize(started time.Time, discovered int, opts Options, interrupted bool) RunReport {
	sort.Slice(a.files, func(i, j int) bool { return a.files[i].Path < a.files[j].Path })

	s := RunSummary{
		SchemaVersion: ReportSchemaVersion,
		Timestamp:     started.UTC(),
		TargetPath:    opts.TargetPath,
		TotalFiles:    discovered,
		Concurrency:   opts.Concurrency,
		FixMode:       opts.FixMode,
		Interrupted:   interrupted,
	}
	for _, fr := range a.files {
		switch fr.Status {
		case FilePassed:
			s.Passed++
		case FileFailed:
			s.Failed++
		case FileFixError:
			s.FixErrors++
		}
		if fr.WasFixed {
			s.Fixed++
		}
	}
	s.NotStarted = discovered - len(a.files)
	if s.NotStarted < 0 {
		s.NotStarted = 0
	}
	s.DurationSeconds = time.Since(started).Seconds()
	s.OverallSuccess = !interrupted && s.Failed == 0 && s.FixErrors == 0 && s.NotStarted == 0
	return RunReport{Summary: s, Files: a.files}
}

// outcomeStatus derives the per-file status from its tool outcomes. A missing
// tool degrades coverage but never gates the file; findings, crashes, and
// timeouts fail it; a crashed or timed-out fix tool (whose changes were rolled
// back) marks the file as a fix error instead.
func outcomeStatus(outcomes []ToolOutcome) FileStatus {
	status := FilePassed
	for _, o := range outcomes {
		if o.Status == ToolOK || o.Status == ToolNotFound {
			continue
		}
		if o.Role == toolset.RoleFix && o.Status != ToolIssues {
			return FileFixError
		}
		status = FileFailed
	}
	return status
}
