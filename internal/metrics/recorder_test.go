package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("rotation", 150*time.Millisecond)
	pr.ObserveRunDuration(500 * time.Millisecond)
	pr.IncTaskResult("md", ResultSuccess)
	pr.IncTaskResult("html", ResultFailure)
	pr.IncRunOutcome("failed")
	pr.AddBytesConverted(4096)
	pr.IncRetries(2)
	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("discovery", time.Second)
	r.ObserveRunDuration(time.Second)
	r.IncTaskResult("md", ResultSkipped)
	r.IncRunOutcome("success")
	r.AddBytesConverted(1)
	r.IncRetries(1)
}
