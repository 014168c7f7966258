// Package pipeline orchestrates one conversion run end to end: snapshot,
// rotation, discovery, conversion, reporting and bookkeeping.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docrotate/internal/config"
	"git.home.luguber.info/inful/docrotate/internal/convert"
	"git.home.luguber.info/inful/docrotate/internal/discovery"
	"git.home.luguber.info/inful/docrotate/internal/events"
	"git.home.luguber.info/inful/docrotate/internal/fsops"
	"git.home.luguber.info/inful/docrotate/internal/logfields"
	"git.home.luguber.info/inful/docrotate/internal/metrics"
	"git.home.luguber.info/inful/docrotate/internal/report"
	"git.home.luguber.info/inful/docrotate/internal/retry"
	"git.home.luguber.info/inful/docrotate/internal/rotation"
	"git.home.luguber.info/inful/docrotate/internal/runstore"
	"git.home.luguber.info/inful/docrotate/internal/stats"
)

// Pipeline wires the run stages together. Config and Engine are required;
// Store, Events and Metrics are optional collaborators.
type Pipeline struct {
	Config  *config.Config
	Engine  convert.Engine
	Logger  *slog.Logger
	Store   runstore.Store
	Events  *events.Publisher
	Metrics metrics.Recorder

	DryRun bool

	// Now stamps directories and the report; nil means time.Now.
	Now func() time.Time
	// Sleep is forwarded to the retry loop as a test seam.
	Sleep func(time.Duration)
}

// RunResult is the terminal outcome of one run.
type RunResult struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Stats      *stats.RunStatistics
	Rotation   rotation.Result
	ReportPath string
	DryRun     bool
}

// Failed reports whether any conversion task failed.
func (r *RunResult) Failed() bool { return r.Stats.HasFailures() }

// ExitCode maps the run outcome to a process exit code.
func (r *RunResult) ExitCode() int {
	if r.Failed() {
		return 1
	}
	return 0
}

// Outcome returns the persisted outcome label for the run.
func (r *RunResult) Outcome() string {
	if r.Failed() {
		return runstore.OutcomeFailed
	}
	return runstore.OutcomeSuccess
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p *Pipeline) metrics() metrics.Recorder {
	if p.Metrics != nil {
		return p.Metrics
	}
	return metrics.NoopRecorder{}
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Run executes one full run. It returns an error only for setup faults
// (unwalkable inputs directory); conversion failures are reported through
// the RunResult and its exit code.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	cfg := p.Config
	rec := p.metrics()

	result := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		DryRun:    p.DryRun,
	}
	log := p.logger().With(logfields.RunID(result.RunID))
	st := stats.New()
	result.Stats = st

	mode := report.ModeProduction
	if p.DryRun {
		mode = report.ModeDryRun
	}
	log.Info("starting conversion run", slog.String("mode", string(mode)))

	// Snapshot the outputs directory before the run mutates anything under
	// it. A failed snapshot is logged and the run continues.
	if !p.DryRun {
		stageStart := time.Now()
		if snap, err := fsops.Snapshot(cfg.Directories.Outputs, p.now()); err != nil {
			log.Warn("outputs snapshot failed", logfields.Error(err))
		} else {
			log.Info("outputs snapshot created", logfields.Path(snap))
		}
		rec.ObserveStageDuration("snapshot", time.Since(stageStart))
	}

	// Rotate the directory set.
	stageStart := time.Now()
	rot := rotation.Rotator{
		Inputs:  cfg.Directories.Inputs,
		Queue:   cfg.Directories.InputsQueue,
		Staging: cfg.Directories.InputsStaging,
		Logger:  log,
		Now:     p.now,
	}
	result.Rotation = rot.Run()
	rec.ObserveStageDuration("rotation", time.Since(stageStart))
	for _, warning := range result.Rotation.Warnings {
		log.Warn("rotation step failed", logfields.Error(warning))
	}

	// Discover input files.
	stageStart = time.Now()
	files, err := discovery.Discover(cfg.Directories.Inputs, cfg.InputTypeSet(), log)
	rec.ObserveStageDuration("discovery", time.Since(stageStart))
	if err != nil {
		return nil, fmt.Errorf("discover input files: %w", err)
	}
	st.TotalDiscovered = len(files)
	log.Info("discovery complete", logfields.Count(len(files)))

	rep := report.New(p.now(), mode, report.ConfigEcho{
		InputTypes:    cfg.InputTypes,
		OutputTypes:   cfg.OutputTypes,
		MaxFileSizeMB: cfg.MaxFileSizeMB,
		InputsDir:     cfg.Directories.Inputs,
		OutputsDir:    cfg.Directories.Outputs,
		RetryAttempts: cfg.RetryAttempts,
	}, len(files))

	stageStart = time.Now()
	p.convertAll(ctx, log, rec, files, st, rep)
	rec.ObserveStageDuration("conversion", time.Since(stageStart))

	rep.Add("")
	rep.AddLines(st.SummaryLines())
	for _, line := range st.SummaryLines() {
		log.Info(line)
	}

	// An empty discovery leaves outputs untouched: no report file is
	// written, but the run is still recorded.
	if len(files) > 0 {
		path, perr := rep.Persist(cfg.Directories.Outputs, p.now())
		if perr != nil {
			log.Error("failed to persist run report", logfields.Error(perr))
		} else {
			result.ReportPath = path
			log.Info("run report written", logfields.Path(path))
		}
	}

	result.FinishedAt = time.Now()
	rec.ObserveRunDuration(result.FinishedAt.Sub(result.StartedAt))
	rec.IncRunOutcome(result.Outcome())

	p.recordRun(ctx, log, result)
	p.publishRun(log, result)

	log.Info("conversion run finished",
		slog.String("outcome", result.Outcome()),
		logfields.DurationMS(float64(result.FinishedAt.Sub(result.StartedAt).Milliseconds())))
	return result, nil
}

// convertAll walks every (file, output type) pair in deterministic order and
// folds each outcome into the statistics and the report.
func (p *Pipeline) convertAll(ctx context.Context, log *slog.Logger, rec metrics.Recorder,
	files []discovery.FileRecord, st *stats.RunStatistics, rep *report.RunReport) {
	cfg := p.Config

	exec := &convert.Executor{
		Engine: p.Engine,
		Policy: retry.Policy{
			Mode:       retry.BackoffFixed,
			Initial:    cfg.RetryDelay(),
			Max:        cfg.RetryDelay(),
			MaxRetries: cfg.RetryAttempts,
		},
		MaxFileSize: cfg.MaxFileSizeBytes(),
		Timeout:     cfg.ConvertTimeout(),
		Logger:      log,
		Sleep:       p.Sleep,
	}

	for i, file := range files {
		log.Info(fmt.Sprintf("[%d/%d - %.0f%%] processing file",
			i+1, len(files), float64(i+1)/float64(len(files))*100),
			logfields.File(file.RelativePath))

		srcFormat, err := convert.ParseFormat(file.Extension())
		if err != nil {
			st.AddFailure(file.RelativePath, err.Error())
			rep.AddFailure(file.RelativePath, "", err.Error())
			continue
		}

		var sourceSize int64
		if info, serr := os.Stat(file.AbsolutePath); serr == nil {
			sourceSize = info.Size()
		}

		// The size gate applies once per file, before the target fan-out
		// and even in dry run: an oversized file is a single failure and
		// none of its tasks run.
		if limit := cfg.MaxFileSizeBytes(); limit > 0 && sourceSize > limit {
			reason := convert.SizeLimitReason(sourceSize, limit)
			log.Warn("rejecting oversized file",
				logfields.File(file.RelativePath),
				slog.String("reason", reason))
			st.AddFailure(file.RelativePath, reason)
			rep.AddSizeRejected(file.RelativePath, reason)
			continue
		}

		for _, out := range cfg.OutputTypes {
			target := convert.Format(out)
			if target == srcFormat {
				// Same-type tasks are never attempted and never reported.
				st.AddSkip()
				rec.IncTaskResult(out, metrics.ResultSkipped)
				continue
			}

			outputPath := convert.OutputPath(cfg.Directories.Outputs, file, target)
			if p.DryRun {
				// Nothing is converted, so nothing counts toward the
				// byte total.
				st.AddSuccess(0)
				rep.AddDryRun(file.RelativePath, outputPath)
				rec.IncTaskResult(out, metrics.ResultSuccess)
				continue
			}

			outcome := exec.Do(ctx, convert.Task{
				Source:       file,
				SourceFormat: srcFormat,
				TargetFormat: target,
				OutputPath:   outputPath,
			})
			rec.IncRetries(outcome.Retries)

			switch outcome.Kind {
			case convert.OutcomeSuccess:
				st.AddSuccess(sourceSize)
				rep.AddSuccess(file.RelativePath, outputPath)
				rec.IncTaskResult(out, metrics.ResultSuccess)
				rec.AddBytesConverted(sourceSize)
			case convert.OutcomeFailure:
				st.AddFailure(file.RelativePath, outcome.Reason)
				if outcome.SizeRejected {
					rep.AddSizeRejected(file.RelativePath, outcome.Reason)
				} else {
					rep.AddFailure(file.RelativePath, outputPath, outcome.Reason)
				}
				rec.IncTaskResult(out, metrics.ResultFailure)
				log.Error("conversion failed",
					logfields.File(file.RelativePath),
					logfields.Target(out),
					slog.String("reason", outcome.Reason))
			case convert.OutcomeSkipped:
				st.AddSkip()
				rec.IncTaskResult(out, metrics.ResultSkipped)
			}
		}
	}
}

func (p *Pipeline) recordRun(ctx context.Context, log *slog.Logger, result *RunResult) {
	if p.Store == nil {
		return
	}
	st := result.Stats
	record := runstore.Record{
		ID:         result.RunID,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Discovered: st.TotalDiscovered,
		Succeeded:  st.Successful,
		Failed:     st.Failed,
		Skipped:    st.Skipped,
		Bytes:      st.TotalBytes,
		Outcome:    result.Outcome(),
		ReportPath: result.ReportPath,
	}
	for _, f := range st.Failures {
		record.Failures = append(record.Failures, runstore.Failure{Path: f.RelativePath, Reason: f.Reason})
	}
	if err := p.Store.RecordRun(ctx, record); err != nil {
		log.Error("failed to record run history", logfields.Error(err))
	}
}

func (p *Pipeline) publishRun(log *slog.Logger, result *RunResult) {
	if p.Events == nil {
		return
	}
	st := result.Stats
	err := p.Events.PublishRunCompleted(events.RunCompletedEvent{
		RunID:      result.RunID,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Discovered: st.TotalDiscovered,
		Succeeded:  st.Successful,
		Failed:     st.Failed,
		Skipped:    st.Skipped,
		Bytes:      st.TotalBytes,
		Outcome:    result.Outcome(),
		ReportPath: result.ReportPath,
		DryRun:     result.DryRun,
	})
	if err != nil {
		log.Error("failed to publish run event", logfields.Error(err))
	}
}
