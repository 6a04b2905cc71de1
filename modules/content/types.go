package content

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status of a content item.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Item is one piece of site content.
type Item struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Alias     string    `json:"alias"`
	Teaser    string    `json:"teaser,omitempty"`
	Body      string    `json:"body"`
	Section   string    `json:"section,omitempty"`
	Status    string    `json:"status"`
	AuthorID  uuid.UUID `json:"author_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListFilter narrows List results.
type ListFilter struct {
	Section string
	// Status filters to one status; empty means published only, which is
	// what public pages want.
	Status string
	Limit  int
}

// Store is the content persistence interface.
type Store interface {
	Create(ctx context.Context, item *Item) error
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (Item, error)
	GetByAlias(ctx context.Context, alias string) (Item, error)
	List(ctx context.Context, filter ListFilter) ([]Item, error)
}

var (
	// ErrNotFound means no content item matches the lookup.
	ErrNotFound = errors.New("content: not found")

	// ErrDuplicateAlias means another item already uses the alias.
	ErrDuplicateAlias = errors.New("content: duplicate alias")
)
