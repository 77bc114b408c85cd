package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobboard/crawler/internal/domain"
)

// PostgresStore keeps postings in a PostgreSQL table with a unique title
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore connects to dsn. key is used as the password when the
// DSN does not carry one.
func NewPostgresStore(ctx context.Context, dsn, key, table string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}
	if cfg.ConnConfig.Password == "" {
		cfg.ConnConfig.Password = key
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return &PostgresStore{
		pool:  pool,
		table: pgx.Identifier{table}.Sanitize(),
	}, nil
}

// Migrate creates the postings table if it does not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+s.table+` (
		id         BIGSERIAL PRIMARY KEY,
		title      TEXT NOT NULL UNIQUE,
		contents   TEXT NOT NULL DEFAULT '',
		region1    TEXT NOT NULL DEFAULT '',
		region2    TEXT NOT NULL DEFAULT '',
		category1  TEXT NOT NULL DEFAULT '',
		category2  TEXT,
		is_ad      BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("%w: migrate: %v", ErrStore, err)
	}
	return nil
}

func (s *PostgresStore) FindByTitle(ctx context.Context, title string) (*domain.Posting, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT title, contents, region1, region2, category1, category2, is_ad, created_at
		 FROM `+s.table+` WHERE title = $1 LIMIT 1`,
		title,
	)

	var p domain.Posting
	if err := row.Scan(&p.Title, &p.Contents, &p.Region1, &p.Region2,
		&p.Category1, &p.Category2, &p.IsAd, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: find %q: %v", ErrStore, title, err)
	}
	return &p, nil
}

func (s *PostgresStore) Insert(ctx context.Context, p domain.Posting) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.table+` (title, contents, region1, region2, category1, category2, is_ad, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.Title, p.Contents, p.Region1, p.Region2, p.Category1, p.Category2, p.IsAd, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert %q: %v", ErrStore, p.Title, err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, title string, p domain.Posting) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.table+`
		 SET title = $2, contents = $3, region1 = $4, region2 = $5, category1 = $6, is_ad = $7, created_at = $8
		 WHERE title = $1`,
		title, p.Title, p.Contents, p.Region1, p.Region2, p.Category1, p.IsAd, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: update %q: %v", ErrStore, title, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: no posting titled %q", ErrStore, title)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}
