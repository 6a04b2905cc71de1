package session

import (
	"context"
	"errors"
	"time"
)

// Manager drives the session lifecycle over a Store: load-or-create at the
// start of a request, commit at the end.
type Manager[Data any] struct {
	store         Store[Data]
	ttl           time.Duration
	touchInterval time.Duration
}

// NewManager creates a session manager. touchInterval throttles how often a
// merely-read session is rewritten to extend its expiry.
func NewManager[Data any](store Store[Data], ttl, touchInterval time.Duration) *Manager[Data] {
	return &Manager[Data]{store: store, ttl: ttl, touchInterval: touchInterval}
}

// Load resolves the session for token. A missing, invalid, or expired token
// yields a fresh anonymous session, so callers always get a usable session.
func (m *Manager[Data]) Load(ctx context.Context, token string) (Session[Data], error) {
	if token != "" {
		sess, err := m.store.GetByToken(ctx, token)
		switch {
		case err == nil && !sess.IsExpired():
			return sess, nil
		case err != nil && !errors.Is(err, ErrNotFound):
			return Session[Data]{}, err
		}
	}
	return New[Data](m.ttl)
}

// Commit persists the session's end-of-request state. Deleted sessions are
// removed from the store and ErrDeleted is returned so the transport clears
// the cookie; untouched sessions cost no store write.
func (m *Manager[Data]) Commit(ctx context.Context, sess *Session[Data]) error {
	if sess.IsDeleted() {
		if err := m.store.Delete(ctx, sess.Token); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		return ErrDeleted
	}

	sess.Touch(m.ttl, m.touchInterval)
	if sess.IsModified() {
		return m.store.Save(ctx, sess)
	}
	return nil
}

// CleanupExpired removes expired sessions from the store.
func (m *Manager[Data]) CleanupExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx)
}

// TTL returns the configured session lifetime.
func (m *Manager[Data]) TTL() time.Duration { return m.ttl }
