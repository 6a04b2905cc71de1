package server_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliftonc/calipso/core/server"
)

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("missing address", func(t *testing.T) {
		t.Parallel()
		_, err := server.NewFromConfig(server.Config{})
		assert.ErrorIs(t, err, server.ErrMissingAddress)
	})

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()
		srv, err := server.NewFromConfig(server.Config{Addr: ":0"})
		require.NoError(t, err)
		assert.NotNil(t, srv)
	})

	t.Run("bad cert files", func(t *testing.T) {
		t.Parallel()
		_, err := server.NewFromConfig(server.Config{
			Addr:        ":0",
			TLSCertFile: "/nonexistent/cert.pem",
			TLSKeyFile:  "/nonexistent/key.pem",
		})
		assert.ErrorIs(t, err, server.ErrFailedLoadCert)
	})
}

func TestServer_StartStop(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0", server.WithShutdownTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	}()

	// Give the listener a moment, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not return after context cancellation")
	}
	require.NoError(t, srv.Stop())
}

func TestServer_StartTwice(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go srv.Start(ctx, http.NewServeMux()) //nolint:errcheck
	time.Sleep(50 * time.Millisecond)

	err := srv.Start(ctx, http.NewServeMux())
	assert.ErrorIs(t, err, server.ErrAlreadyRunning)
}

func TestServer_StopWithoutStart(t *testing.T) {
	t.Parallel()
	assert.NoError(t, server.New(":0").Stop())
}

func TestServer_Run_CancelReturnsNil(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, http.NewServeMux())() }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}
