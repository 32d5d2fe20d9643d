// ABOUTME: Embedding persistence for the SQLite store
// ABOUTME: Vectors are stored as JSON text, one row per message, upsert semantics

package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// UpsertEmbedding stores the embedding vector for a message, replacing any
// prior vector for the same message ID. The write is idempotent.
func (s *SQLiteStore) UpsertEmbedding(ctx context.Context, messageID int64, vector []float64) error {
	encoded, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("encoding embedding: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO message_embeddings (message_id, embedding)
		VALUES (?, ?)
	`, messageID, string(encoded))
	if err != nil {
		return fmt.Errorf("upserting embedding: %w", err)
	}

	s.logger.Debug("stored embedding", "message_id", messageID, "dimensions", len(vector))
	return nil
}

// ListEmbeddings returns the full embedding corpus across all conversations,
// joined with the message columns the retrieval layer needs. The corpus is
// conversation-agnostic; scoping is applied by the caller.
func (s *SQLiteStore) ListEmbeddings(ctx context.Context) ([]*StoredEmbedding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT me.message_id, m.conversation_id, m.role, m.content, me.embedding
		FROM message_embeddings me
		JOIN messages m ON me.message_id = m.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var embeddings []*StoredEmbedding
	for rows.Next() {
		var e StoredEmbedding
		var encoded string

		if err := rows.Scan(&e.MessageID, &e.ConversationID, &e.Role, &e.Content, &encoded); err != nil {
			return nil, fmt.Errorf("scanning embedding row: %w", err)
		}
		if err := json.Unmarshal([]byte(encoded), &e.Vector); err != nil {
			return nil, fmt.Errorf("decoding embedding for message %d: %w", e.MessageID, err)
		}

		embeddings = append(embeddings, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embedding rows: %w", err)
	}
	return embeddings, nil
}
