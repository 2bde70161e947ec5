package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
	"github.com/couchcryptid/climate-risk-engine/internal/engine"
	"github.com/couchcryptid/climate-risk-engine/internal/observability"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawRecord
	errs    []error
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawRecord, error) {
	i := int(m.index.Add(1) - 1)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.batches) {
		// Block until cancelled to simulate waiting for messages.
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockAssessor struct {
	err error
}

func (m *mockAssessor) Assess(_ context.Context, raw domain.RawRecord) (domain.OutputRecord, error) {
	if m.err != nil {
		return domain.OutputRecord{}, m.err
	}
	return domain.OutputRecord{Key: raw.Key, Value: raw.Value}, nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []domain.OutputRecord
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, records []domain.OutputRecord) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = append(m.loaded, records...)
	return nil
}

func (m *mockLoader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loaded)
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func makeRawRecord(t *testing.T, key string) domain.RawRecord {
	t.Helper()
	value, err := json.Marshal(map[string]string{"key": key})
	require.NoError(t, err)
	return domain.RawRecord{Key: []byte(key), Value: value}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	batch := []domain.RawRecord{makeRawRecord(t, "rec-1"), makeRawRecord(t, "rec-2")}

	ext := &mockExtractor{batches: [][]domain.RawRecord{batch}}
	ldr := &mockLoader{}

	p := engine.New(ext, &mockAssessor{}, ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, ldr.count())
	assert.Equal(t, []byte("rec-1"), ldr.loaded[0].Key)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no batches, will block
	ldr := &mockLoader{}

	p := engine.New(ext, &mockAssessor{}, ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, ldr.count())
}

func TestPipeline_Run_AssessErrorSkipsRecord(t *testing.T) {
	var committed atomic.Int64
	rec := makeRawRecord(t, "bad-1")
	rec.Commit = func(context.Context) error {
		committed.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawRecord{{rec}}}
	ldr := &mockLoader{}

	p := engine.New(ext, &mockAssessor{err: errors.New("malformed window")}, ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, ldr.count(), "failed record must not be loaded")
	assert.Equal(t, int64(1), committed.Load(), "failed record must still be committed")
	assert.Error(t, p.CheckReadiness(context.Background()), "nothing processed, not ready")
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	var committed atomic.Int64
	rec := makeRawRecord(t, "rec-1")
	rec.Commit = func(context.Context) error {
		committed.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawRecord{{rec}}}
	ldr := &mockLoader{}

	p := engine.New(ext, &mockAssessor{}, ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 1, ldr.count())
	assert.Equal(t, int64(1), committed.Load())
}

func TestPipeline_Run_LoadErrorDoesNotCommit(t *testing.T) {
	var committed atomic.Int64
	rec := makeRawRecord(t, "rec-1")
	rec.Commit = func(context.Context) error {
		committed.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawRecord{{rec}}}
	ldr := &mockLoader{err: errors.New("broker unavailable")}

	p := engine.New(ext, &mockAssessor{}, ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 700*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Zero(t, committed.Load(), "offsets must not advance past unloaded records")
}

func TestPipeline_Run_RecoversAfterExtractError(t *testing.T) {
	batch := []domain.RawRecord{makeRawRecord(t, "rec-1")}

	ext := &mockExtractor{
		errs:    []error{errors.New("transient broker error")},
		batches: [][]domain.RawRecord{nil, batch},
	}
	ldr := &mockLoader{}

	p := engine.New(ext, &mockAssessor{}, ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 1, ldr.count(), "pipeline must retry after a transient extract failure")
}

func TestPipeline_CheckReadiness(t *testing.T) {
	p := engine.New(&mockExtractor{}, &mockAssessor{}, &mockLoader{}, slog.Default(), newTestMetrics(), 50)
	assert.Error(t, p.CheckReadiness(context.Background()))
}
