// Package modelroute maps caller-facing logical model names to Ollama
// invocation parameters (model tag, token budget, forced-language flag).
//
// The table is loaded once at process start, either from the built-in
// defaults or from a TOML file, and is read-only afterwards. Resolve never
// returns an error: names without a configured entry are treated as
// literal Ollama model ids with a default token budget, so any installed
// model is usable without configuration.
package modelroute
