// Package runstore persists a durable history of conversion runs.
package runstore

import (
	"context"
	"time"
)

// Record is one completed pipeline run.
type Record struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Discovered int
	Succeeded  int
	Failed     int
	Skipped    int
	Bytes      int64
	Outcome    string
	ReportPath string
	Failures   []Failure
}

// Failure is one failed conversion within a run.
type Failure struct {
	Path   string
	Reason string
}

// Outcome values persisted for a run.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Store records run history and serves it back most-recent-first.
type Store interface {
	RecordRun(ctx context.Context, rec Record) error
	RecentRuns(ctx context.Context, limit int) ([]Record, error)
	Close() error
}
