// Package stats accumulates per-task outcomes for one run and renders the
// fixed-format statistics summary.
package stats

import (
	"fmt"
	"strings"
	"time"
)

const rule = "======================================================================"

// Failure records one failed task for the enumerated failure list.
type Failure struct {
	RelativePath string
	Reason       string
}

// RunStatistics is the mutable per-run aggregate. It is owned exclusively by
// the orchestrator for the duration of one run and never shared across runs.
type RunStatistics struct {
	TotalDiscovered int
	Successful      int
	Failed          int
	Skipped         int
	TotalBytes      int64
	Failures        []Failure

	start time.Time
	now   func() time.Time
}

// New creates statistics anchored at the current time.
func New() *RunStatistics {
	return &RunStatistics{start: time.Now(), now: time.Now}
}

// NewAt creates statistics with an injected clock, for deterministic tests.
func NewAt(start time.Time, now func() time.Time) *RunStatistics {
	return &RunStatistics{start: start, now: now}
}

// AddSuccess records a successful task and the source bytes it processed.
func (s *RunStatistics) AddSuccess(sourceBytes int64) {
	s.Successful++
	s.TotalBytes += sourceBytes
}

// AddFailure records a failed task with its reason.
func (s *RunStatistics) AddFailure(relativePath, reason string) {
	s.Failed++
	s.Failures = append(s.Failures, Failure{RelativePath: relativePath, Reason: reason})
}

// AddSkip records a task skipped because target and source type matched.
func (s *RunStatistics) AddSkip() { s.Skipped++ }

// Elapsed returns wall-clock time since construction.
func (s *RunStatistics) Elapsed() time.Duration { return s.now().Sub(s.start) }

// HasFailures reports whether any task failed.
func (s *RunStatistics) HasFailures() bool { return s.Failed > 0 }

// SummaryLines renders the statistics block.
func (s *RunStatistics) SummaryLines() []string {
	lines := []string{
		rule,
		"CONVERSION STATISTICS",
		rule,
		fmt.Sprintf("Total files discovered: %d", s.TotalDiscovered),
		fmt.Sprintf("Successful conversions: %d", s.Successful),
		fmt.Sprintf("Failed conversions: %d", s.Failed),
		fmt.Sprintf("Skipped (same type): %d", s.Skipped),
		fmt.Sprintf("Total data processed: %s", FormatBytes(s.TotalBytes)),
		fmt.Sprintf("Total runtime: %s", FormatDuration(s.Elapsed())),
	}
	if len(s.Failures) > 0 {
		lines = append(lines, "", "Failed Files:")
		for _, f := range s.Failures {
			lines = append(lines, fmt.Sprintf("  - %s: %s", f.RelativePath, f.Reason))
		}
	}
	lines = append(lines, rule)
	return lines
}

// Summary renders the statistics block as a single string.
func (s *RunStatistics) Summary() string { return strings.Join(s.SummaryLines(), "\n") }
