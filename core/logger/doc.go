// Package logger provides structured logging built on Go's standard slog
// package: environment-driven handler construction plus nil-safe attribute
// helpers for the attributes this codebase logs most (modules, themes,
// layouts, requests).
//
// Usage:
//
//	log := logger.Default(logger.Config{Level: "debug"})
//	log.Info("module loaded", logger.Module("content"))
package logger
