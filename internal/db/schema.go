package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		telegram_id BIGINT UNIQUE,
		username TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		photo_url TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'user',
		is_demo BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_login_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS listings (
		id UUID PRIMARY KEY,
		kind TEXT NOT NULL,
		owner_id UUID NOT NULL,
		status TEXT NOT NULL,
		data JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS listings_kind_status_idx ON listings (kind, status)`,
	`CREATE INDEX IF NOT EXISTS listings_owner_idx ON listings (owner_id)`,
	`CREATE TABLE IF NOT EXISTS trades (
		id UUID NOT NULL,
		listing_id UUID PRIMARY KEY REFERENCES listings (id),
		buyer_id UUID NOT NULL,
		seller_id UUID NOT NULL,
		status TEXT NOT NULL,
		data JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema создаёт таблицы, если их ещё нет
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ошибка при создании схемы: %w", err)
		}
	}
	return nil
}
