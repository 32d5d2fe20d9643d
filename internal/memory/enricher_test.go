// ABOUTME: Tests for the best-effort embedding enricher
// ABOUTME: Verifies fire-and-forget writes, disabled mode, and failure swallowing

package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder implements Embedder with a canned vector or error
type fakeEmbedder struct {
	vector []float64
	err    error
	calls  int
	mu     sync.Mutex
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.vector, f.err
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeSink records upserted vectors
type fakeSink struct {
	mu      sync.Mutex
	vectors map[int64][]float64
	err     error
}

func newFakeSink() *fakeSink {
	return &fakeSink{vectors: map[int64][]float64{}}
}

func (f *fakeSink) UpsertEmbedding(ctx context.Context, messageID int64, vector []float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.vectors[messageID] = vector
	return nil
}

func (f *fakeSink) get(messageID int64) ([]float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vectors[messageID]
	return v, ok
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestEnrich_StoresVector(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float64{0.1, 0.2}}
	sink := newFakeSink()
	enricher := NewEnricher(embedder, sink, true, nil)

	enricher.Enrich(42, "some text")

	waitFor(t, func() bool {
		_, ok := sink.get(42)
		return ok
	})
	v, _ := sink.get(42)
	assert.Equal(t, []float64{0.1, 0.2}, v)
}

func TestEnrich_DisabledIsNoOp(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float64{0.1}}
	sink := newFakeSink()
	enricher := NewEnricher(embedder, sink, false, nil)

	enricher.Enrich(1, "text")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, embedder.callCount())
	_, ok := sink.get(1)
	assert.False(t, ok)
}

func TestEnrich_EmbedderFailureSwallowed(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("backend down")}
	sink := newFakeSink()
	enricher := NewEnricher(embedder, sink, true, nil)

	// Must not panic or surface anywhere
	enricher.Enrich(1, "text")

	waitFor(t, func() bool { return embedder.callCount() == 1 })
	_, ok := sink.get(1)
	assert.False(t, ok)
}

func TestEnrich_SinkFailureSwallowed(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float64{0.5}}
	sink := newFakeSink()
	sink.err = errors.New("disk full")
	enricher := NewEnricher(embedder, sink, true, nil)

	enricher.Enrich(1, "text")

	waitFor(t, func() bool { return embedder.callCount() == 1 })
}

func TestQuery_ReturnsVector(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float64{1, 2, 3}}
	enricher := NewEnricher(embedder, newFakeSink(), true, nil)

	v := enricher.Query(context.Background(), "query text")
	assert.Equal(t, []float64{1, 2, 3}, v)
}

func TestQuery_DisabledReturnsNil(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float64{1}}
	enricher := NewEnricher(embedder, newFakeSink(), false, nil)

	assert.Nil(t, enricher.Query(context.Background(), "query"))
	assert.Equal(t, 0, embedder.callCount())
}

func TestQuery_FailureReturnsNil(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("unavailable")}
	enricher := NewEnricher(embedder, newFakeSink(), true, nil)

	assert.Nil(t, enricher.Query(context.Background(), "query"))
}

func TestEnabled(t *testing.T) {
	require.True(t, NewEnricher(nil, nil, true, nil).Enabled())
	require.False(t, NewEnricher(nil, nil, false, nil).Enabled())
}
