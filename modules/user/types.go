package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Account is one registered site user. The password is only ever stored as
// a bcrypt hash; the hash never leaves the store layer in JSON form.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	About        string    `json:"about,omitempty"`
	Admin        bool      `json:"admin"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SetPassword replaces the account's password hash.
func (a *Account) SetPassword(plain string) error {
	if plain == "" {
		return ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
func (a *Account) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(plain)) == nil
}

// Store is the account persistence interface. Username lookups are
// case-insensitive.
type Store interface {
	Create(ctx context.Context, acct *Account) error
	Update(ctx context.Context, acct *Account) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)
	GetByUsername(ctx context.Context, username string) (Account, error)
	List(ctx context.Context) ([]Account, error)
}

var (
	// ErrNotFound means no account matches the lookup.
	ErrNotFound = errors.New("user: not found")

	// ErrDuplicateUsername means another account already uses the username.
	ErrDuplicateUsername = errors.New("user: duplicate username")

	// ErrEmptyPassword rejects blank passwords before they reach bcrypt.
	ErrEmptyPassword = errors.New("user: empty password")
)
