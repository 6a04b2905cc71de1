package session

import "context"

// Store is the persistence interface for sessions. Implementations must be
// safe for concurrent use. Save observes the session's previous token so a
// rotated token's old index can be dropped atomically with the write.
type Store[Data any] interface {
	GetByToken(ctx context.Context, token string) (Session[Data], error)
	Save(ctx context.Context, sess *Session[Data]) error
	Delete(ctx context.Context, token string) error
	// DeleteExpired removes expired sessions and reports how many went.
	DeleteExpired(ctx context.Context) (int64, error)
}
