package exporter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/go-task-export/internal/domain"
	"github.com/tasknest/go-task-export/internal/postgres"
)

var fixedNow = time.Date(2026, 8, 24, 15, 4, 0, 0, time.UTC)

// ── mocks ────────────────────────────────────────────────────────────────────

type fakeSource struct {
	records []domain.TaskRecord
	err     error
	calls   int
}

func (s *fakeSource) ListAll(_ context.Context) ([]domain.TaskRecord, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

var _ postgres.TaskSource = (*fakeSource)(nil)

// ── helpers ──────────────────────────────────────────────────────────────────

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestExporter(t *testing.T, src *fakeSource) (*Exporter, string) {
	t.Helper()
	dir := t.TempDir()
	exp := New("", dir,
		WithTaskSource(src),
		WithLogger(testLogger()),
		WithClock(func() time.Time { return fixedNow }),
	)
	return exp, dir
}

func taskRecord(id, title string) domain.TaskRecord {
	return domain.TaskRecord{
		ID:        id,
		Title:     title,
		Priority:  domain.PriorityMedium,
		CreatedAt: fixedNow.Add(-time.Hour),
		UpdatedAt: fixedNow.Add(-time.Minute),
	}
}

// ── tests ────────────────────────────────────────────────────────────────────

func TestRun_CommitsOnFirstRun(t *testing.T) {
	src := &fakeSource{records: []domain.TaskRecord{
		taskRecord("1", "write changelog"),
		taskRecord("2", "cut release"),
	}}
	exp, dir := newTestExporter(t, src)

	result, err := exp.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Saved)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, "v2026.08.24.1504", result.Version)
	assert.Equal(t, StateCommitted, exp.State())
	assert.Equal(t, 1, src.calls)
	assert.FileExists(t, filepath.Join(dir, "latest.json"))
	assert.FileExists(t, filepath.Join(dir, "latest.hash"))
}

func TestRun_SkipsWhenUnchanged(t *testing.T) {
	records := []domain.TaskRecord{taskRecord("1", "steady state")}

	first, dir := newTestExporter(t, &fakeSource{records: records})
	result, err := first.Run(context.Background())
	require.NoError(t, err)
	require.True(t, result.Saved)

	second := New("", dir,
		WithTaskSource(&fakeSource{records: records}),
		WithLogger(testLogger()),
		WithClock(func() time.Time { return fixedNow.Add(30 * time.Minute) }),
	)
	result, err = second.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Saved)
	assert.Equal(t, "no changes detected", result.Reason)
	assert.Equal(t, StateSkipped, second.State())
}

func TestRun_EmptyStoreStillCommits(t *testing.T) {
	exp, dir := newTestExporter(t, &fakeSource{records: nil})

	result, err := exp.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Saved, "first-ever run has no previous hash")
	assert.Equal(t, 0, result.Count)
	assert.FileExists(t, filepath.Join(dir, "latest.json"))
}

func TestRun_ExtractFailurePropagates(t *testing.T) {
	storeErr := &domain.StoreUnavailableError{Op: "query tasks", Cause: errors.New("connection reset")}
	exp, dir := newTestExporter(t, &fakeSource{err: storeErr})

	_, err := exp.Run(context.Background())
	require.Error(t, err)

	var unavailable *domain.StoreUnavailableError
	assert.True(t, errors.As(err, &unavailable))
	assert.Equal(t, StateFailed, exp.State())
	assert.NoFileExists(t, filepath.Join(dir, "latest.json"), "failed runs write nothing")
}

func TestRun_MalformedRecordFailsRunBeforeAnyWrite(t *testing.T) {
	src := &fakeSource{records: []domain.TaskRecord{
		taskRecord("ok", "fine"),
		taskRecord("broken", ""),
	}}
	exp, dir := newTestExporter(t, src)

	_, err := exp.Run(context.Background())
	require.Error(t, err)

	var malformed *domain.MalformedRecordError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "broken", malformed.RecordID)
	assert.Equal(t, StateFailed, exp.State())
	assert.NoFileExists(t, filepath.Join(dir, "latest.json"))
	assert.NoFileExists(t, filepath.Join(dir, "latest.hash"))
}

func TestRun_NotReentrant(t *testing.T) {
	exp, _ := newTestExporter(t, &fakeSource{records: []domain.TaskRecord{taskRecord("1", "once")}})

	_, err := exp.Run(context.Background())
	require.NoError(t, err)

	_, err = exp.Run(context.Background())
	require.Error(t, err, "a second Run on the same instance must fail")
}

func TestRun_CreatesOutputDirectory(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "exports", "nested")
	exp := New("", dir,
		WithTaskSource(&fakeSource{records: []domain.TaskRecord{taskRecord("1", "x")}}),
		WithLogger(testLogger()),
		WithClock(func() time.Time { return fixedNow }),
	)

	_, err := exp.Run(context.Background())
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
