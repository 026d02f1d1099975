// Package testutil provides helpers for integration tests that need a
// real PostgreSQL or Redis instance.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tabithajarvis/CatalogApp/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 730731

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// catalogSchema mirrors the statements applied by cmd/setup.
var catalogSchema = []string{
	`DROP TABLE IF EXISTS items`,
	`DROP TABLE IF EXISTS categories`,
	`DROP TABLE IF EXISTS users`,
	`CREATE TABLE users (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL UNIQUE,
		picture    TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE categories (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		owner_id   BIGINT NOT NULL REFERENCES users (id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE items (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		picture     TEXT NOT NULL DEFAULT '',
		category_id BIGINT NOT NULL REFERENCES categories (id),
		owner_id    BIGINT NOT NULL REFERENCES users (id),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX idx_items_category_id ON items (category_id)`,
}

// ResetCatalogSchema drops and recreates the catalog tables for tests.
func ResetCatalogSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range catalogSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("reset catalog schema: %w", err)
		}
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// NewTestUser creates a test user with a unique email.
func NewTestUser(t testing.TB, name string) *model.User {
	t.Helper()
	return &model.User{
		Name:      name,
		Email:     UniqueEmail(name),
		CreatedAt: time.Now().UTC(),
	}
}

// NewTestCategory creates a test category owned by the given user.
func NewTestCategory(t testing.TB, name string, ownerID int64) *model.Category {
	t.Helper()
	return &model.Category{
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
}

// NewTestItem creates a test item in the given category.
func NewTestItem(t testing.TB, name string, categoryID, ownerID int64) *model.Item {
	t.Helper()
	return &model.Item{
		Name:       name,
		CategoryID: categoryID,
		OwnerID:    ownerID,
		CreatedAt:  time.Now().UTC(),
	}
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}
