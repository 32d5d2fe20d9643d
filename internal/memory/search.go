// ABOUTME: Brute-force nearest-neighbor search over the embedding corpus
// ABOUTME: Full linear scan with cosine scoring, sorted by similarity descending

package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/rowanlabs/rowan/internal/store"
)

// Corpus provides the full set of stored embeddings across all conversations.
type Corpus interface {
	ListEmbeddings(ctx context.Context) ([]*store.StoredEmbedding, error)
}

// SearchResult is one scored corpus entry.
type SearchResult struct {
	MessageID      int64
	ConversationID string
	Role           string
	Content        string
	Similarity     float64
}

// Searcher runs similarity queries over a Corpus. The search is a full
// linear scan, O(corpus × dimensionality) per query; fine at the scale
// rowan targets, and an ANN index is out of scope.
type Searcher struct {
	corpus Corpus
}

// NewSearcher creates a Searcher over the given corpus.
func NewSearcher(corpus Corpus) *Searcher {
	return &Searcher{corpus: corpus}
}

// Search scores every corpus entry against the query vector and returns the
// top k results sorted by similarity descending. The result length is
// min(k, corpus size). The search is conversation-agnostic; scoping and
// thresholds are applied by the caller.
func (s *Searcher) Search(ctx context.Context, query []float64, k int) ([]SearchResult, error) {
	embeddings, err := s.corpus.ListEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading embedding corpus: %w", err)
	}

	results := make([]SearchResult, 0, len(embeddings))
	for _, e := range embeddings {
		results = append(results, SearchResult{
			MessageID:      e.MessageID,
			ConversationID: e.ConversationID,
			Role:           e.Role,
			Content:        e.Content,
			Similarity:     Cosine(query, e.Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}
