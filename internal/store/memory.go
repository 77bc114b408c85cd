package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jobboard/crawler/internal/domain"
)

// MemoryStore is an in-process PostingStore
type MemoryStore struct {
	mu       sync.RWMutex
	postings map[string]domain.Posting
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{postings: make(map[string]domain.Posting)}
}

func (s *MemoryStore) FindByTitle(ctx context.Context, title string) (*domain.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.postings[title]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryStore) Insert(ctx context.Context, p domain.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.postings[p.Title]; ok {
		return fmt.Errorf("%w: duplicate title %q", ErrStore, p.Title)
	}
	s.postings[p.Title] = p
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, title string, p domain.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.postings[title]; !ok {
		return fmt.Errorf("%w: no posting titled %q", ErrStore, title)
	}
	if p.Title != title {
		delete(s.postings, title)
	}
	s.postings[p.Title] = p
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// All returns the stored postings ordered by title
func (s *MemoryStore) All() []domain.Posting {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Posting, 0, len(s.postings))
	for _, p := range s.postings {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}
