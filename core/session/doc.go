// Package session provides cookie-backed visitor sessions.
//
// A Session carries a stable ID, a rotating secret token, and generic
// application Data. The Manager loads-or-creates a session per request and
// commits it afterwards, touching the expiry only at a configured interval
// to keep store writes down. Tokens rotate on login and logout so a
// pre-authentication cookie can never be replayed into an authenticated
// session.
//
// Two stores ship: MemoryStore for single-process deployments and tests,
// and RedisStore which leans on key TTLs for expiry. The Transport moves
// tokens through HMAC-signed cookies on plain net/http handlers.
package session
