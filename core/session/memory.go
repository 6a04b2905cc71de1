package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory, indexed by token. It is the
// default store when no Redis address is configured, and what the tests use.
type MemoryStore[Data any] struct {
	mu      sync.RWMutex
	byToken map[string]Session[Data]
}

func NewMemoryStore[Data any]() *MemoryStore[Data] {
	return &MemoryStore[Data]{byToken: make(map[string]Session[Data])}
}

func (s *MemoryStore[Data]) GetByToken(ctx context.Context, token string) (Session[Data], error) {
	if err := ctx.Err(); err != nil {
		return Session[Data]{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byToken[token]
	if !ok {
		return Session[Data]{}, ErrNotFound
	}
	return sess, nil
}

func (s *MemoryStore[Data]) Save(ctx context.Context, sess *Session[Data]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.prevToken != "" && sess.prevToken != sess.Token {
		delete(s.byToken, sess.prevToken)
		sess.prevToken = ""
	}
	stored := *sess
	stored.modified = false
	s.byToken[sess.Token] = stored
	return nil
}

func (s *MemoryStore[Data]) Delete(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byToken[token]; !ok {
		return ErrNotFound
	}
	delete(s.byToken, token)
	return nil
}

func (s *MemoryStore[Data]) DeleteExpired(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	now := time.Now()
	for token, sess := range s.byToken {
		if now.After(sess.ExpiresAt) {
			delete(s.byToken, token)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored sessions. Test helper.
func (s *MemoryStore[Data]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byToken)
}
