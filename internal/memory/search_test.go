// ABOUTME: Tests for brute-force similarity search
// ABOUTME: Verifies ordering, result count, and corpus scan semantics

package memory

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowanlabs/rowan/internal/store"
)

// fakeCorpus implements Corpus over a fixed slice
type fakeCorpus struct {
	embeddings []*store.StoredEmbedding
	err        error
}

func (f *fakeCorpus) ListEmbeddings(ctx context.Context) ([]*store.StoredEmbedding, error) {
	return f.embeddings, f.err
}

func TestSearch_OrderedBySimilarityDescending(t *testing.T) {
	corpus := &fakeCorpus{embeddings: []*store.StoredEmbedding{
		{MessageID: 1, ConversationID: "x", Role: "user", Content: "A", Vector: []float64{1, 0}},
		{MessageID: 2, ConversationID: "x", Role: "user", Content: "B", Vector: []float64{0, 1}},
		{MessageID: 3, ConversationID: "y", Role: "assistant", Content: "C", Vector: []float64{0.9, 0.1}},
	}}
	searcher := NewSearcher(corpus)

	results, err := searcher.Search(context.Background(), []float64{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, int64(1), results[0].MessageID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
	assert.Equal(t, int64(3), results[1].MessageID)
	assert.InDelta(t, 0.9/math.Sqrt(0.82), results[1].Similarity, 1e-9)
}

func TestSearch_ReturnsMinOfKAndCorpusSize(t *testing.T) {
	corpus := &fakeCorpus{embeddings: []*store.StoredEmbedding{
		{MessageID: 1, Vector: []float64{1, 0}},
		{MessageID: 2, Vector: []float64{0, 1}},
	}}
	searcher := NewSearcher(corpus)

	results, err := searcher.Search(context.Background(), []float64{1, 0}, 5)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = searcher.Search(context.Background(), []float64{1, 0}, 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_EmptyCorpus(t *testing.T) {
	searcher := NewSearcher(&fakeCorpus{})

	results, err := searcher.Search(context.Background(), []float64{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_CarriesMessageColumns(t *testing.T) {
	corpus := &fakeCorpus{embeddings: []*store.StoredEmbedding{
		{MessageID: 7, ConversationID: "conv-1", Role: "assistant", Content: "the answer", Vector: []float64{1, 0}},
	}}
	searcher := NewSearcher(corpus)

	results, err := searcher.Search(context.Background(), []float64{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "conv-1", results[0].ConversationID)
	assert.Equal(t, "assistant", results[0].Role)
	assert.Equal(t, "the answer", results[0].Content)
}

func TestSearch_CorpusError(t *testing.T) {
	searcher := NewSearcher(&fakeCorpus{err: errors.New("db gone")})

	_, err := searcher.Search(context.Background(), []float64{1, 0}, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading embedding corpus")
}

func TestSearch_AgainstSQLiteStore(t *testing.T) {
	tmp := t.TempDir()
	s, err := store.NewSQLiteStore(tmp + "/mem.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	user, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)
	conv, err := s.CreateConversation(ctx, user.ID, "")
	require.NoError(t, err)

	msg, err := s.AppendMessage(ctx, conv.ID, user.ID, store.RoleUser, "remember me")
	require.NoError(t, err)
	require.NoError(t, s.UpsertEmbedding(ctx, msg.ID, []float64{0.6, 0.8}))

	searcher := NewSearcher(s)
	results, err := searcher.Search(ctx, []float64{0.6, 0.8}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, msg.ID, results[0].MessageID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
}
