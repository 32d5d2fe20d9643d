// Package auth handles caller authentication for rowan's HTTP API:
// bcrypt password hashing with a strength policy, HS256 JWT issue and
// verification, and middleware that attaches the verified Identity to
// the request context. Everything downstream trusts that Identity
// unconditionally; authorization (conversation ownership) is enforced by
// the chat service, not here.
package auth
