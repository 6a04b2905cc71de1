package content

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps content in process memory. It backs single-node sites
// without a database and the test suite.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[uuid.UUID]Item)}
}

func (s *MemoryStore) Create(ctx context.Context, item *Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Alias == "" {
		item.Alias = Aliasify(item.Title)
	}
	for _, existing := range s.items {
		if existing.Alias == item.Alias {
			return ErrDuplicateAlias
		}
	}

	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.items[item.ID] = *item
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, item *Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.items[item.ID]
	if !ok {
		return ErrNotFound
	}
	for id, existing := range s.items {
		if id != item.ID && existing.Alias == item.Alias {
			return ErrDuplicateAlias
		}
	}

	item.CreatedAt = current.CreatedAt
	item.UpdatedAt = time.Now()
	s.items[item.ID] = *item
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return item, nil
}

func (s *MemoryStore) GetByAlias(ctx context.Context, alias string) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.Alias == alias {
			return item, nil
		}
	}
	return Item{}, ErrNotFound
}

func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	status := filter.Status
	if status == "" {
		status = StatusPublished
	}

	s.mu.RLock()
	out := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		if item.Status != status {
			continue
		}
		if filter.Section != "" && item.Section != filter.Section {
			continue
		}
		out = append(out, item)
	}
	s.mu.RUnlock()

	// Newest first, alias as the deterministic tie-break.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Alias < out[j].Alias
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Aliasify derives a URL-safe alias from a title.
func Aliasify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
