// Package server exposes the rowan HTTP API.
//
// # Endpoints
//
// Public:
//
//	GET  /health       liveness probe
//	POST /auth/login   exchange username/password for a JWT
//
// Authenticated (Bearer token):
//
//	POST /api/conversations                conversation creation
//	GET  /api/conversations                conversations owned by the caller
//	GET  /api/conversations/{id}/messages  recent messages (?limit, default 50)
//	POST /api/chat                         one chat turn
//	GET  /api/models/available             the logical model route table
//	GET  /api/models/installed             models present on the backend
//	POST /api/models/download              start a background model pull
//
// # Error Shape
//
// Every error response is a JSON object with an "error" field. Chat turn
// failures map from the service error taxonomy: validation failures are 400,
// missing or foreign conversations are 404, backend failures are 502, and
// store failures are 500. Ownership violations are indistinguishable from
// missing conversations by design of the 404 mapping.
package server
