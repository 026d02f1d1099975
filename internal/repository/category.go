package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tabithajarvis/CatalogApp/internal/model"
)

// ErrCategoryNotFound is returned when a category id resolves to no row.
var ErrCategoryNotFound = errors.New("category not found")

// CreateCategory inserts a new category into the database.
// The generated ID is written back to the passed category.
func (r *Repository) CreateCategory(ctx context.Context, category *model.Category) error {
	query := `
		INSERT INTO categories (name, owner_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		category.Name,
		category.OwnerID,
		category.CreatedAt,
	).Scan(&category.ID)

	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// GetCategory retrieves a category by its ID.
func (r *Repository) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	query := `
		SELECT id, name, owner_id, created_at
		FROM categories
		WHERE id = $1
	`

	var category model.Category
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.OwnerID,
		&category.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return &category, nil
}

// ListCategories retrieves all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]*model.Category, error) {
	query := `
		SELECT id, name, owner_id, created_at
		FROM categories
		ORDER BY name, id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		var category model.Category
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.OwnerID,
			&category.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// UpdateCategoryName renames a category.
func (r *Repository) UpdateCategoryName(ctx context.Context, id int64, name string) error {
	query := `
		UPDATE categories
		SET name = $2
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, name)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// DeleteCategory removes a category and all of its items in one
// transaction. Deleting the items first keeps the foreign key satisfied.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM items WHERE category_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete category items: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit category delete: %w", err)
	}

	return nil
}
