// Package report builds the human-readable run report: an ordered sequence
// of lines accumulated during the run and written once, atomically, at the
// end.
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/docrotate/internal/fsops"
)

// Mode labels the run mode in the report header.
type Mode string

const (
	ModeProduction Mode = "PRODUCTION"
	ModeDryRun     Mode = "DRY RUN"
)

// ConfigEcho carries the configuration values echoed into the report header.
type ConfigEcho struct {
	InputTypes    []string
	OutputTypes   []string
	MaxFileSizeMB float64
	InputsDir     string
	OutputsDir    string
	RetryAttempts int
}

// RunReport is the append-only line buffer for one run.
type RunReport struct {
	lines []string
}

// New seeds a report with the generation header, echoed configuration and
// discovery count.
func New(generated time.Time, mode Mode, cfg ConfigEcho, discovered int) *RunReport {
	r := &RunReport{}
	r.Add("Document Conversion Run Report")
	r.Addf("Generated: %s", generated.Format("2006-01-02 15:04:05"))
	r.Addf("Mode: %s", mode)
	r.Add("")
	r.Add("Configuration:")
	r.Addf("  Input types: [%s]", strings.Join(cfg.InputTypes, ", "))
	r.Addf("  Output types: [%s]", strings.Join(cfg.OutputTypes, ", "))
	r.Addf("  Max file size: %gMB", cfg.MaxFileSizeMB)
	r.Addf("  Inputs directory: %s", cfg.InputsDir)
	r.Addf("  Outputs directory: %s", cfg.OutputsDir)
	r.Addf("  Retry attempts: %d", cfg.RetryAttempts)
	r.Add("")
	r.Addf("Files discovered: %d", discovered)
	r.Add("")
	return r
}

// Add appends one raw line.
func (r *RunReport) Add(line string) { r.lines = append(r.lines, line) }

// Addf appends one formatted line.
func (r *RunReport) Addf(format string, args ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

// AddSuccess records a converted task.
func (r *RunReport) AddSuccess(sourceRel, outputPath string) {
	r.Addf("SUCCESS: %s -> %s", sourceRel, outputPath)
}

// AddFailure records a failed task with its reason.
func (r *RunReport) AddFailure(sourceRel, outputPath, reason string) {
	r.Addf("FAILED: %s -> %s (%s)", sourceRel, outputPath, reason)
}

// AddSizeRejected records a file rejected by the size gate. The file was
// never handed to the conversion capability; statistically it counts as a
// failure.
func (r *RunReport) AddSizeRejected(sourceRel, reason string) {
	r.Addf("SKIPPED (size): %s - %s", sourceRel, reason)
}

// AddDryRun records a task that would have run.
func (r *RunReport) AddDryRun(sourceRel, outputPath string) {
	r.Addf("[DRY RUN] %s -> %s", sourceRel, outputPath)
}

// AddLines appends a block of lines (used for the statistics summary).
func (r *RunReport) AddLines(lines []string) { r.lines = append(r.lines, lines...) }

// Lines returns the accumulated lines.
func (r *RunReport) Lines() []string { return r.lines }

// Render joins the report into its final textual form.
func (r *RunReport) Render() string { return strings.Join(r.lines, "\n") + "\n" }

// Filename returns the timestamped report file name.
func Filename(now time.Time) string {
	return fmt.Sprintf("run_report_%s.txt", fsops.Stamp(now))
}

// Persist writes the rendered report atomically under outputsDir and returns
// the report path.
func (r *RunReport) Persist(outputsDir string, now time.Time) (string, error) {
	path := filepath.Join(outputsDir, Filename(now))
	if err := fsops.WriteFileAtomic(path, []byte(r.Render())); err != nil {
		return "", fmt.Errorf("persist run report: %w", err)
	}
	return path, nil
}
