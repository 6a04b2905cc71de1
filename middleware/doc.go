// Package middleware provides the HTTP middleware chain wrapped around the
// dispatch coordinator: request IDs, request logging, panic recovery,
// session loading, and language negotiation.
//
// Each middleware is a plain func(http.Handler) http.Handler; Chain
// composes them in order.
package middleware
