package assets

import (
	"context"
	"errors"
	"io"
	"time"
)

// Entry is one stored asset as reported by a backend listing.
type Entry struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Backend is the asset storage interface. Paths are forward-slash relative
// keys; backends must reject traversal outside their root.
type Backend interface {
	Put(ctx context.Context, path, contentType string, r io.Reader) error
	Get(ctx context.Context, path string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]Entry, error)
}

var (
	// ErrNotFound means no asset exists at the path.
	ErrNotFound = errors.New("assets: not found")

	// ErrInvalidPath rejects traversal and otherwise malformed keys.
	ErrInvalidPath = errors.New("assets: invalid path")
)
