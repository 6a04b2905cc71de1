package user

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the in-memory account store used when no database is
// configured, and by tests. Safe for concurrent use.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]Account
	byUsername map[string]uuid.UUID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[uuid.UUID]Account),
		byUsername: make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) Create(_ context.Context, acct *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(acct.Username)
	if _, exists := s.byUsername[key]; exists {
		return ErrDuplicateUsername
	}
	if acct.ID == uuid.Nil {
		acct.ID = uuid.New()
	}
	now := time.Now().UTC()
	acct.CreatedAt = now
	acct.UpdatedAt = now

	s.byID[acct.ID] = *acct
	s.byUsername[key] = acct.ID
	return nil
}

func (s *MemoryStore) Update(_ context.Context, acct *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[acct.ID]
	if !ok {
		return ErrNotFound
	}

	key := strings.ToLower(acct.Username)
	if other, taken := s.byUsername[key]; taken && other != acct.ID {
		return ErrDuplicateUsername
	}

	delete(s.byUsername, strings.ToLower(existing.Username))
	acct.CreatedAt = existing.CreatedAt
	acct.UpdatedAt = time.Now().UTC()
	s.byID[acct.ID] = *acct
	s.byUsername[key] = acct.ID
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byUsername, strings.ToLower(acct.Username))
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.byID[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acct, nil
}

func (s *MemoryStore) GetByUsername(_ context.Context, username string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[strings.ToLower(username)]
	if !ok {
		return Account{}, ErrNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryStore) List(_ context.Context) ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Account, 0, len(s.byID))
	for _, acct := range s.byID {
		out = append(out, acct)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Username) < strings.ToLower(out[j].Username)
	})
	return out, nil
}
