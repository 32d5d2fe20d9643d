// Package memory implements rowan's long-term semantic memory: embedding
// generation for stored messages and brute-force similarity search over
// the full embedding corpus.
//
// # Components
//
//   - Cosine: similarity metric, defined as 0 for zero-magnitude vectors
//   - Searcher: linear scan over the corpus, top-k by similarity
//   - Enricher: best-effort embedding writes (detached goroutines) and
//     synchronous query-vector computation
//
// # Failure Policy
//
// Embedding work is the one fully-recovered failure category in rowan.
// Enricher logs and discards every error; a message may permanently lack
// an embedding if the backend was down when it was written. If the
// embedding model is missing at startup, the whole subsystem stays
// disabled for the process lifetime with no retry.
//
// The corpus is conversation-agnostic. The chat orchestrator applies
// conversation scoping and the similarity threshold to search results.
package memory
