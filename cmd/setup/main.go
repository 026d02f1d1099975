// Package main creates the catalog database schema. It is idempotent
// and safe to re-run; request handling never invokes it.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL UNIQUE,
		picture    TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		owner_id   BIGINT NOT NULL REFERENCES users (id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		picture     TEXT NOT NULL DEFAULT '',
		category_id BIGINT NOT NULL REFERENCES categories (id),
		owner_id    BIGINT NOT NULL REFERENCES users (id),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_category_id ON items (category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_items_created_at ON items (created_at DESC)`,
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()

	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	for _, stmt := range statements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			logger.Error("failed to apply schema statement", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("catalog schema is up to date")
}
