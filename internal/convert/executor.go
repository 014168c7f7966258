package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/docrotate/internal/discovery"
	"git.home.luguber.info/inful/docrotate/internal/fsops"
	"git.home.luguber.info/inful/docrotate/internal/logfields"
	"git.home.luguber.info/inful/docrotate/internal/retry"
)

// Task is one (source file, target format) conversion unit.
type Task struct {
	Source       discovery.FileRecord
	SourceFormat Format
	TargetFormat Format
	OutputPath   string
}

// OutcomeKind tags the terminal state of a task.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFailure OutcomeKind = "failure"
	OutcomeSkipped OutcomeKind = "skipped"
)

// Outcome is the immutable terminal result of one task.
type Outcome struct {
	Kind         OutcomeKind
	BytesWritten int64
	Reason       string
	Retries      int

	// SizeRejected marks a failure caused by the size gate, which reports
	// differently from a conversion failure.
	SizeRejected bool
}

// Skipped builds a skip outcome (task never attempted).
func Skipped(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

// SizeLimitReason renders the rejection reason for a source of size bytes
// against the configured limit.
func SizeLimitReason(size, limit int64) string {
	return fmt.Sprintf("file size %.1fMB exceeds limit of %.1fMB",
		float64(size)/(1024*1024), float64(limit)/(1024*1024))
}

var errNilDocument = errors.New("conversion returned no document")

// Executor invokes the conversion capability per task with bounded retries
// and commits successful exports atomically. Only thrown Convert/Export
// errors are retried; validation failures (missing capability, empty
// content) and post-export write failures are terminal on first sight.
type Executor struct {
	Engine      Engine
	Policy      retry.Policy
	MaxFileSize int64         // bytes; <=0 disables the size gate
	Timeout     time.Duration // per-attempt ceiling; 0 = unbounded
	Logger      *slog.Logger

	// Sleep is a test seam; nil means time.Sleep.
	Sleep func(time.Duration)
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Executor) sleep(d time.Duration) {
	if e.Sleep != nil {
		e.Sleep(d)
		return
	}
	time.Sleep(d)
}

// Do runs the task to a terminal outcome. Retries are idempotent: no
// destination path is touched until an attempt fully succeeds.
func (e *Executor) Do(ctx context.Context, task Task) Outcome {
	log := e.logger()

	if e.MaxFileSize > 0 {
		info, err := os.Stat(task.Source.AbsolutePath)
		if err != nil {
			return Outcome{Kind: OutcomeFailure, Reason: fmt.Sprintf("stat source: %v", err)}
		}
		if info.Size() > e.MaxFileSize {
			reason := SizeLimitReason(info.Size(), e.MaxFileSize)
			log.Warn("rejecting oversized file", logfields.File(task.Source.RelativePath), slog.String("reason", reason))
			return Outcome{Kind: OutcomeFailure, Reason: reason, SizeRejected: true}
		}
	}

	var lastErr error
	retries := 0
	for attempt := 0; attempt <= e.Policy.MaxRetries; attempt++ {
		if attempt > 0 {
			retries++
			log.Info("retrying conversion",
				logfields.File(task.Source.RelativePath),
				logfields.Target(task.TargetFormat.Ext()),
				logfields.Attempt(attempt))
			e.sleep(e.Policy.Delay(attempt))
		}

		content, err := e.attempt(ctx, task)
		if err == nil {
			if werr := fsops.WriteFileAtomic(task.OutputPath, content); werr != nil {
				// A fresh conversion would not fix an I/O-layer fault; do not retry.
				return Outcome{Kind: OutcomeFailure, Reason: fmt.Sprintf("write output: %v", werr), Retries: retries}
			}
			return Outcome{Kind: OutcomeSuccess, BytesWritten: int64(len(content)), Retries: retries}
		}

		if errors.Is(err, ErrNoExport) || errors.Is(err, ErrEmptyExport) || errors.Is(err, errNilDocument) {
			return Outcome{Kind: OutcomeFailure, Reason: err.Error(), Retries: retries}
		}
		lastErr = err
		log.Warn("conversion attempt failed",
			logfields.File(task.Source.RelativePath),
			logfields.Target(task.TargetFormat.Ext()),
			logfields.Error(err))
	}

	return Outcome{Kind: OutcomeFailure, Reason: lastErr.Error(), Retries: retries}
}

// attempt performs one conversion+export without touching the destination.
func (e *Executor) attempt(ctx context.Context, task Task) ([]byte, error) {
	actx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	doc, err := e.Engine.Convert(actx, task.Source.AbsolutePath)
	if err != nil {
		return nil, fmt.Errorf("conversion error: %w", err)
	}
	if doc == nil {
		return nil, errNilDocument
	}

	content, err := doc.Export(task.TargetFormat)
	if err != nil {
		if errors.Is(err, ErrNoExport) {
			return nil, err
		}
		return nil, fmt.Errorf("export error: %w", err)
	}
	if len(content) == 0 {
		return nil, ErrEmptyExport
	}
	return content, nil
}
