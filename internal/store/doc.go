// Package store provides durable persistence for rowan's users,
// conversations, messages, and message embeddings.
//
// # Overview
//
// The Store interface abstracts storage so services can be tested with
// in-memory or temporary databases. The production implementation is
// SQLiteStore, backed by modernc.org/sqlite (pure Go, no cgo) with WAL
// mode enabled for concurrent reads.
//
// # Data Model
//
//   - User: local account with bcrypt password hash
//   - Conversation: append-only message log owned by one user (UUID id)
//   - Message: immutable log entry, AUTOINCREMENT id, ordered by
//     (created_at, id) within a conversation
//   - StoredEmbedding: at most one vector per message, JSON-encoded,
//     upsert semantics
//
// # Schema
//
// The schema is created automatically when the store is opened. Timestamps
// are stored as RFC3339 UTC text. Message roles are constrained to
// "system", "user", and "assistant" at both the Go and SQL level.
//
// # Concurrency
//
// The store serializes its own writes through SQLite; it makes no
// cross-call coordination guarantees. Concurrent appends to the same
// conversation interleave arbitrarily, and ListEmbeddings is a plain
// read that may or may not observe a concurrent upsert.
package store
