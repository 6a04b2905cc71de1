package server

import "errors"

var (
	// ErrMissingAddress is returned when no listen address is configured.
	ErrMissingAddress = errors.New("server address is required")

	// ErrAlreadyRunning is returned by Start on a running server.
	ErrAlreadyRunning = errors.New("server is already running")

	// ErrFailedLoadCert wraps TLS certificate loading failures.
	ErrFailedLoadCert = errors.New("failed to load certificate")
)
