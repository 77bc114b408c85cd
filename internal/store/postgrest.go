package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"

	"github.com/jobboard/crawler/internal/domain"
)

// RESTStore talks to a PostgREST endpoint (e.g. a hosted Supabase project)
// at {baseURL}/rest/v1/{table}, authenticating with an API key.
type RESTStore struct {
	client  *postgrest.Client
	table   string
	timeout time.Duration
}

// NewRESTStore creates a store for the given base URL and access key
func NewRESTStore(baseURL, key, table string, timeout time.Duration) *RESTStore {
	client := postgrest.NewClient(strings.TrimRight(baseURL, "/")+"/rest/v1", "public", map[string]string{
		"apikey":        key,
		"Authorization": "Bearer " + key,
	})
	return &RESTStore{client: client, table: table, timeout: timeout}
}

func (s *RESTStore) FindByTitle(ctx context.Context, title string) (*domain.Posting, error) {
	var rows []domain.Posting
	err := s.exec(ctx, "select", func() error {
		_, err := s.client.From(s.table).
			Select("*", "", false).
			Eq("title", title).
			Limit(1, "").
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *RESTStore) Insert(ctx context.Context, p domain.Posting) error {
	return s.exec(ctx, "insert", func() error {
		_, _, err := s.client.From(s.table).
			Insert(p, false, "", "minimal", "").
			Execute()
		return err
	})
}

func (s *RESTStore) Update(ctx context.Context, title string, p domain.Posting) error {
	return s.exec(ctx, "update", func() error {
		_, _, err := s.client.From(s.table).
			Update(p, "minimal", "").
			Eq("title", title).
			Execute()
		return err
	})
}

func (s *RESTStore) Ping(ctx context.Context) error {
	return s.exec(ctx, "ping", func() error {
		_, _, err := s.client.From(s.table).
			Select("title", "", false).
			Limit(1, "").
			Execute()
		return err
	})
}

// exec runs one client call. The client takes no context, so the wait is
// bounded here by ctx and the store timeout.
func (s *RESTStore) exec(ctx context.Context, op string, call func() error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- call() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %s %s: %v", ErrStore, op, s.table, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %s %s: %v", ErrStore, op, s.table, ctx.Err())
	}
}
