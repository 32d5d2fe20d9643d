// ABOUTME: Error taxonomy for chat turns
// ABOUTME: Sentinels distinguish validation, not-found, backend, and persistence failures

package chat

import "errors"

// Turn error categories. Handlers map these to HTTP status codes; the
// wrapped detail is logged server-side and returned as a detail string.
var (
	// ErrValidation means a required input was missing.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means the conversation does not exist or is owned by a
	// different user. Both causes produce this same error so callers can't
	// probe for other users' conversation ids.
	ErrNotFound = errors.New("conversation not found")

	// ErrBackend means the inference backend call failed. The user message
	// has already been persisted when this is returned.
	ErrBackend = errors.New("inference backend failed")

	// ErrPersistence means a durable store write failed.
	ErrPersistence = errors.New("persistence failed")
)
