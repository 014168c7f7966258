// Package metrics provides observability hooks for conversion runs. By
// default all components use NoopRecorder, so metrics collection never needs
// nil checks at call sites; a Prometheus-backed Recorder is injected when a
// metrics listener is configured.
package metrics

import "time"

// ResultLabel enumerates conversion task result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailure ResultLabel = "failure"
	ResultSkipped ResultLabel = "skipped"
)

// Recorder defines observability hooks for run and stage metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncTaskResult(target string, result ResultLabel)
	IncRunOutcome(outcome string) // outcome: success|failed
	AddBytesConverted(n int64)
	IncRetries(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncTaskResult(string, ResultLabel)          {}
func (NoopRecorder) IncRunOutcome(string)                       {}
func (NoopRecorder) AddBytesConverted(int64)                    {}
func (NoopRecorder) IncRetries(int)                             {}
