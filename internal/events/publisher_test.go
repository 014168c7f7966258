package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewPublisherRejectsMissingSettings(t *testing.T) {
	_, err := NewPublisher("", "docrotate.runs")
	require.ErrorContains(t, err, "url is required")

	_, err = NewPublisher("nats://localhost:4222", "")
	require.ErrorContains(t, err, "subject is required")
}

func TestRunCompletedEventJSONShape(t *testing.T) {
	started := time.Date(2026, 8, 29, 15, 4, 5, 0, time.UTC)
	event := RunCompletedEvent{
		RunID:      "0b6f3b52-0000-4000-8000-000000000000",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Discovered: 3,
		Succeeded:  2,
		Failed:     1,
		Bytes:      1024,
		Outcome:    "failed",
		ReportPath: "outputs/run_report_20260829_150405_000.txt",
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "failed", decoded["outcome"])
	require.Equal(t, float64(3), decoded["discovered"])
	require.Contains(t, decoded, "run_id")
	// Zero-valued optional fields stay off the wire.
	require.NotContains(t, decoded, "dry_run")
}
