package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docrotate/internal/discovery"
	"git.home.luguber.info/inful/docrotate/internal/retry"
)

// stubDocument exports fixed content or a fixed error.
type stubDocument struct {
	content []byte
	err     error
}

func (d *stubDocument) Export(Format) ([]byte, error) { return d.content, d.err }

// stubEngine fails a configurable number of Convert calls before succeeding.
type stubEngine struct {
	failures int
	calls    int
	doc      Document
}

func (e *stubEngine) Convert(ctx context.Context, path string) (Document, error) {
	e.calls++
	if e.calls <= e.failures {
		return nil, errors.New("transient parse failure")
	}
	return e.doc, nil
}

func newTask(t *testing.T, content string) Task {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(src, []byte(content), 0o644))
	return Task{
		Source:       discovery.FileRecord{AbsolutePath: src, RelativePath: "report.pdf"},
		SourceFormat: FormatPDF,
		TargetFormat: FormatMD,
		OutputPath:   filepath.Join(dir, "out", "report_from_pdf.md"),
	}
}

func fixedPolicy(maxRetries int) retry.Policy {
	return retry.Policy{Mode: retry.BackoffFixed, Initial: time.Millisecond, Max: time.Second, MaxRetries: maxRetries}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	engine := &stubEngine{failures: 2, doc: &stubDocument{content: []byte("# out")}}
	slept := 0
	ex := &Executor{
		Engine: engine,
		Policy: fixedPolicy(2),
		Sleep:  func(time.Duration) { slept++ },
	}
	task := newTask(t, "source")

	out := ex.Do(context.Background(), task)
	require.Equal(t, OutcomeSuccess, out.Kind)
	require.Equal(t, int64(5), out.BytesWritten)
	require.Equal(t, 2, out.Retries)
	require.Equal(t, 2, slept)

	data, err := os.ReadFile(task.OutputPath)
	require.NoError(t, err)
	require.Equal(t, "# out", string(data))
}

func TestDoExhaustsRetries(t *testing.T) {
	engine := &stubEngine{failures: 10, doc: &stubDocument{content: []byte("x")}}
	ex := &Executor{Engine: engine, Policy: fixedPolicy(2), Sleep: func(time.Duration) {}}
	task := newTask(t, "source")

	out := ex.Do(context.Background(), task)
	require.Equal(t, OutcomeFailure, out.Kind)
	require.Contains(t, out.Reason, "transient parse failure")
	require.Equal(t, 2, out.Retries)
	require.Equal(t, 3, engine.calls) // initial attempt + 2 retries

	_, err := os.Stat(task.OutputPath)
	require.True(t, os.IsNotExist(err), "no destination may exist after failure")
}

func TestDoMissingExportCapabilityIsNotRetried(t *testing.T) {
	engine := &stubEngine{doc: &stubDocument{err: ErrNoExport}}
	ex := &Executor{Engine: engine, Policy: fixedPolicy(5), Sleep: func(time.Duration) {}}

	out := ex.Do(context.Background(), newTask(t, "source"))
	require.Equal(t, OutcomeFailure, out.Kind)
	require.Equal(t, 1, engine.calls)
	require.Zero(t, out.Retries)
}

func TestDoEmptyExportIsFailure(t *testing.T) {
	engine := &stubEngine{doc: &stubDocument{content: nil}}
	ex := &Executor{Engine: engine, Policy: fixedPolicy(3), Sleep: func(time.Duration) {}}

	out := ex.Do(context.Background(), newTask(t, "source"))
	require.Equal(t, OutcomeFailure, out.Kind)
	require.Contains(t, out.Reason, "empty content")
	require.Equal(t, 1, engine.calls)
}

func TestDoSizeGateSkipsEngineEntirely(t *testing.T) {
	engine := &stubEngine{doc: &stubDocument{content: []byte("x")}}
	ex := &Executor{
		Engine:      engine,
		Policy:      fixedPolicy(2),
		MaxFileSize: 4, // bytes
		Sleep:       func(time.Duration) {},
	}

	out := ex.Do(context.Background(), newTask(t, "larger than four"))
	require.Equal(t, OutcomeFailure, out.Kind)
	require.Contains(t, out.Reason, "exceeds limit")
	require.Zero(t, engine.calls, "engine must not be invoked for oversized files")
}

func TestDoWriteFailureIsNotRetried(t *testing.T) {
	engine := &stubEngine{doc: &stubDocument{content: []byte("content")}}
	ex := &Executor{Engine: engine, Policy: fixedPolicy(4), Sleep: func(time.Duration) {}}

	task := newTask(t, "source")
	// Occupy the output's parent path with a file so the atomic write fails.
	require.NoError(t, os.WriteFile(filepath.Dir(task.OutputPath), []byte("x"), 0o644))

	out := ex.Do(context.Background(), task)
	require.Equal(t, OutcomeFailure, out.Kind)
	require.Contains(t, out.Reason, "write output")
	require.Equal(t, 1, engine.calls)
}

func TestDoRetryableExportError(t *testing.T) {
	engine := &stubEngine{doc: &stubDocument{err: errors.New("renderer hiccup")}}
	ex := &Executor{Engine: engine, Policy: fixedPolicy(1), Sleep: func(time.Duration) {}}

	out := ex.Do(context.Background(), newTask(t, "source"))
	require.Equal(t, OutcomeFailure, out.Kind)
	require.Equal(t, 2, engine.calls) // export errors other than ErrNoExport retry
	require.Contains(t, out.Reason, "renderer hiccup")
}
