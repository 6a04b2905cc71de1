package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is one visitor's server-side state. The Data type parameter
// carries application-specific state; the CMS stores the signed-in user and
// pending flash notices there.
type Session[Data any] struct {
	// ID is stable for the whole session lifecycle.
	ID uuid.UUID

	// Token is the secret the cookie carries. It rotates on privilege
	// changes (login, logout) to prevent session fixation.
	Token string

	// UserID is uuid.Nil for anonymous sessions.
	UserID uuid.UUID

	Data Data

	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt time.Time

	// prevToken lets stores drop the superseded token index after a
	// rotation.
	prevToken string

	// modified tracks whether the session needs saving.
	modified bool
}

// New creates an anonymous session with a fresh ID and token.
func New[Data any](ttl time.Duration) (Session[Data], error) {
	token, err := generateToken()
	if err != nil {
		return Session[Data]{}, errors.Join(ErrTokenGeneration, err)
	}

	now := time.Now()
	return Session[Data]{
		ID:        uuid.New(),
		Token:     token,
		UserID:    uuid.Nil,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
		modified:  true,
	}, nil
}

// Authenticate binds the session to userID and rotates the token. The
// session ID is preserved.
func (s *Session[Data]) Authenticate(userID uuid.UUID) error {
	if err := s.rotateToken(); err != nil {
		return err
	}
	s.UserID = userID
	s.UpdatedAt = time.Now()
	return nil
}

// Logout clears authentication, resets Data, and rotates the token. The
// session itself survives as an anonymous one.
func (s *Session[Data]) Logout() error {
	if err := s.rotateToken(); err != nil {
		return err
	}
	s.UserID = uuid.Nil
	s.Data = *new(Data)
	s.UpdatedAt = time.Now()
	return nil
}

// SetData replaces the session's application data.
func (s *Session[Data]) SetData(data Data) {
	s.Data = data
	s.UpdatedAt = time.Now()
	s.modified = true
}

// Destroy marks the session for deletion from the store.
func (s *Session[Data]) Destroy() {
	s.DeletedAt = time.Now()
	s.modified = true
}

// Touch extends the expiration if at least touchInterval passed since the
// last update, keeping store writes off the hot path.
func (s *Session[Data]) Touch(ttl, touchInterval time.Duration) {
	if time.Since(s.UpdatedAt) >= touchInterval {
		now := time.Now()
		s.ExpiresAt = now.Add(ttl)
		s.UpdatedAt = now
		s.modified = true
	}
}

func (s Session[Data]) IsAuthenticated() bool {
	return s.UserID != uuid.Nil && s.Token != ""
}

func (s Session[Data]) IsDeleted() bool { return !s.DeletedAt.IsZero() }

func (s Session[Data]) IsModified() bool { return s.modified }

func (s Session[Data]) IsExpired() bool { return time.Now().After(s.ExpiresAt) }

func (s *Session[Data]) rotateToken() error {
	token, err := generateToken()
	if err != nil {
		return errors.Join(ErrTokenGeneration, err)
	}
	if s.prevToken == "" {
		s.prevToken = s.Token
	}
	s.Token = token
	s.modified = true
	return nil
}

// generateToken returns 32 random bytes base64url-encoded without padding.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
