// ABOUTME: Best-effort embedding generation for stored messages
// ABOUTME: Fire-and-forget writes plus synchronous query-vector computation

package memory

import (
	"context"
	"log/slog"
	"time"
)

// Embedder computes an embedding vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// EmbeddingSink receives computed vectors, keyed by message ID.
type EmbeddingSink interface {
	UpsertEmbedding(ctx context.Context, messageID int64, vector []float64) error
}

// embedTimeout bounds detached embedding work so a hung backend cannot
// accumulate goroutines forever.
const embedTimeout = 30 * time.Second

// Enricher computes embeddings for messages, best-effort. If the embedding
// model was not available at startup the enricher is permanently disabled
// and every call is a cheap no-op. Failures are logged and swallowed; they
// never affect the originating chat turn.
type Enricher struct {
	embedder Embedder
	sink     EmbeddingSink
	enabled  bool
	logger   *slog.Logger
}

// NewEnricher creates an Enricher. enabled reflects the startup availability
// probe for the embedding model; when false all operations are disabled for
// the process lifetime.
func NewEnricher(embedder Embedder, sink EmbeddingSink, enabled bool, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		embedder: embedder,
		sink:     sink,
		enabled:  enabled,
		logger:   logger.With("component", "memory"),
	}
}

// Enabled reports whether the embedding subsystem is active.
func (e *Enricher) Enabled() bool {
	return e.enabled
}

// Enrich launches a detached background task that embeds text and stores the
// vector for messageID. The caller never waits for it and is never told
// whether it succeeded. A fresh background context is used so the work
// survives the originating request.
func (e *Enricher) Enrich(messageID int64, text string) {
	if !e.enabled {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), embedTimeout)
		defer cancel()

		vector, err := e.embedder.Embed(ctx, text)
		if err != nil {
			e.logger.Error("embedding generation failed", "error", err, "message_id", messageID)
			return
		}

		if err := e.sink.UpsertEmbedding(ctx, messageID, vector); err != nil {
			e.logger.Error("embedding store failed", "error", err, "message_id", messageID)
			return
		}

		e.logger.Debug("message embedded", "message_id", messageID, "dimensions", len(vector))
	}()
}

// Query synchronously computes an embedding to use as a retrieval query.
// It returns nil when the subsystem is disabled or the backend call fails;
// the caller treats nil as "skip retrieval", not as an error.
func (e *Enricher) Query(ctx context.Context, text string) []float64 {
	if !e.enabled {
		return nil
	}

	vector, err := e.embedder.Embed(ctx, text)
	if err != nil {
		e.logger.Error("query embedding failed", "error", err)
		return nil
	}
	return vector
}
