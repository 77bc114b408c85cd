// Package store holds the posting store the crawler reconciles against.
package store

import (
	"context"
	"errors"

	"github.com/jobboard/crawler/internal/domain"
)

// ErrStore marks every failure reported by a posting store
var ErrStore = errors.New("posting store error")

// PostingStore persists postings keyed by title
type PostingStore interface {
	// FindByTitle returns nil, nil when no posting has the title
	FindByTitle(ctx context.Context, title string) (*domain.Posting, error)
	Insert(ctx context.Context, p domain.Posting) error
	Update(ctx context.Context, title string, p domain.Posting) error
}

// Pinger reports whether the store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}
