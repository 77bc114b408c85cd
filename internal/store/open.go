package store

import (
	"context"
	"fmt"

	"github.com/jobboard/crawler/internal/config"
)

// Backend is a posting store that can also report its health
type Backend interface {
	PostingStore
	Pinger
}

// Open builds the store named by cfg.Driver. The returned func releases it.
func Open(ctx context.Context, cfg config.StoreConfig) (Backend, func(), error) {
	switch cfg.Driver {
	case "postgres":
		pg, err := NewPostgresStore(ctx, cfg.URL, cfg.Key, cfg.Table)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case "postgrest", "":
		return NewRESTStore(cfg.URL, cfg.Key, cfg.Table, cfg.Timeout), func() {}, nil
	case "memory":
		return NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
