// Package server wraps http.Server with environment-driven configuration
// and graceful shutdown, exposing an errgroup-compatible Run for
// coordinated lifecycle management alongside background workers.
package server
