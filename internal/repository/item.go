package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tabithajarvis/CatalogApp/internal/model"
)

// ErrItemNotFound is returned when an item id resolves to no row.
var ErrItemNotFound = errors.New("item not found")

const itemColumns = "id, name, description, picture, category_id, owner_id, created_at"

// CreateItem inserts a new item into the database.
// The generated ID is written back to the passed item.
func (r *Repository) CreateItem(ctx context.Context, item *model.Item) error {
	query := `
		INSERT INTO items (name, description, picture, category_id, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		item.Name,
		item.Description,
		item.Picture,
		item.CategoryID,
		item.OwnerID,
		item.CreatedAt,
	).Scan(&item.ID)

	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	return nil
}

// GetItem retrieves an item by its ID within a category. An item id
// paired with the wrong category does not resolve.
func (r *Repository) GetItem(ctx context.Context, categoryID, itemID int64) (*model.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE id = $1 AND category_id = $2
	`

	item, err := scanItem(r.pool.QueryRow(ctx, query, itemID, categoryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

// ListItemsByCategory retrieves all items in a category ordered by name.
func (r *Repository) ListItemsByCategory(ctx context.Context, categoryID int64) ([]*model.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE category_id = $1
		ORDER BY name, id
	`

	rows, err := r.pool.Query(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// ListRecentItems retrieves the most recently created items across all
// categories, newest first.
func (r *Repository) ListRecentItems(ctx context.Context, limit int) ([]*model.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// UpdateItem updates an item's mutable fields.
func (r *Repository) UpdateItem(ctx context.Context, item *model.Item) error {
	query := `
		UPDATE items
		SET name = $2, description = $3, picture = $4
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		item.ID,
		item.Name,
		item.Description,
		item.Picture,
	)

	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrItemNotFound
	}

	return nil
}

// DeleteItem removes an item.
func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrItemNotFound
	}

	return nil
}

// scanItem scans a single row into an Item model.
func scanItem(row pgx.Row) (*model.Item, error) {
	var item model.Item
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Picture,
		&item.CategoryID,
		&item.OwnerID,
		&item.CreatedAt,
	)
	return &item, err
}

// collectItems drains rows into Item models.
func collectItems(rows pgx.Rows) ([]*model.Item, error) {
	var items []*model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}
