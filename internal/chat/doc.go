// Package chat implements the memory-augmented chat turn orchestrator.
//
// # Turn Lifecycle
//
// A turn moves through a fixed sequence: validate the request, verify
// conversation ownership, persist the user message, load the recent
// history window, resolve the model route, retrieve relevant memories
// from past conversations, assemble the prompt, invoke the inference
// backend, and persist the reply.
//
// # Failure Semantics
//
//   - ErrValidation / ErrNotFound short-circuit before any side effect
//   - The user-message append is synchronous and never rolled back
//   - Embedding work (write-path and retrieval) is best-effort; failures
//     are logged and swallowed
//   - A backend failure fails the turn (ErrBackend) with the user message
//     left in place and no assistant message written
//   - A store failure after a successful backend call is ErrPersistence:
//     the turn is partially applied (user message saved, reply lost)
//
// No step retries. Every failure is terminal for that turn.
//
// # Prompt Ordering
//
// When present, the forced-language directive always precedes the memories
// directive, which always precedes the conversation history. The memories
// directive replaces any system message already leading the history window.
//
// # Concurrency
//
// Turns are independent units of work; there is no per-conversation lock.
// Concurrent turns against one conversation interleave their history reads
// and appends arbitrarily. The two embedding tasks a turn spawns are
// detached: unbounded, uncancellable, and invisible to the caller.
package chat
