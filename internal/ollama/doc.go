// Package ollama is a minimal HTTP client for a locally hosted Ollama
// server: non-streaming chat completions, embedding generation, the
// /api/tags availability probe, and model pulls. All calls take a
// context.Context; the client itself imposes no timeout.
package ollama
