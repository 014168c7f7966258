package runstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndFetchRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	started := time.Date(2026, 8, 29, 14, 0, 0, 0, time.UTC)
	rec := Record{
		ID:         uuid.NewString(),
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Discovered: 5,
		Succeeded:  3,
		Failed:     1,
		Skipped:    1,
		Bytes:      2048,
		Outcome:    OutcomeFailed,
		ReportPath: "outputs/run_report_20260829_140000_000.txt",
		Failures: []Failure{
			{Path: "reports/q3.pdf", Reason: "conversion failed after 3 attempts"},
		},
	}
	require.NoError(t, store.RecordRun(ctx, rec))

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	require.Equal(t, rec.ID, got.ID)
	require.Equal(t, started.UnixMilli(), got.StartedAt.UnixMilli())
	require.Equal(t, 5, got.Discovered)
	require.Equal(t, int64(2048), got.Bytes)
	require.Equal(t, OutcomeFailed, got.Outcome)
	require.Len(t, got.Failures, 1)
	require.Equal(t, "reports/q3.pdf", got.Failures[0].Path)
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		id := uuid.NewString()
		ids = append(ids, id)
		require.NoError(t, store.RecordRun(ctx, Record{
			ID:         id,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + 10*time.Second),
			Outcome:    OutcomeSuccess,
		}))
	}

	runs, err := store.RecentRuns(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	require.Equal(t, ids[4], runs[0].ID)
	require.Equal(t, ids[3], runs[1].ID)
	require.Equal(t, ids[2], runs[2].ID)
}

func TestRecentRunsEmptyStore(t *testing.T) {
	store := newTestStore(t)
	runs, err := store.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, runs)
}

func TestRecordRunWithoutFailures(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordRun(ctx, Record{
		ID:        uuid.NewString(),
		StartedAt: time.Now(), FinishedAt: time.Now(),
		Outcome: OutcomeSuccess,
	}))

	runs, err := store.RecentRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Empty(t, runs[0].Failures)
}
