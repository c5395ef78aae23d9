// Package analyzer implements a concurrent analysis-and-fix engine: it walks
// a target tree, runs each recognized file through a configured chain of
// external check and fix tools on a bounded worker pool, and aggregates the
// results into a deterministic report. Fix tools run under per-file backups
// and a failed fix is rolled back before the file is reported.
package analyzer

import "context"

// Run is the one-call entry point: build an engine from opts and execute it.
func Run(ctx context.Context, opts Options) (RunReport, error) {
	eng, err := NewEngine(opts)
	if err != nil {
		return RunReport{}, err
	}
	return eng.Run(ctx)
}
