// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tabithajarvis/CatalogApp/internal/metrics"
	"github.com/tabithajarvis/CatalogApp/internal/model"
	"github.com/tabithajarvis/CatalogApp/internal/repository"
)

// Service errors.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrItemNotFound     = errors.New("item not found")
	ErrNotOwner         = errors.New("not the owner of this resource")
	ErrEmptyName        = errors.New("name must not be empty")
)

// recentItemLimit caps the latest-items list on the front page.
const recentItemLimit = 10

// Store is the persistence surface the catalog service depends on.
// *repository.Repository is the production implementation.
type Store interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetOrCreateUser(ctx context.Context, user *model.User) (*model.User, error)

	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	ListCategories(ctx context.Context) ([]*model.Category, error)
	UpdateCategoryName(ctx context.Context, id int64, name string) error
	DeleteCategory(ctx context.Context, id int64) error

	CreateItem(ctx context.Context, item *model.Item) error
	GetItem(ctx context.Context, categoryID, itemID int64) (*model.Item, error)
	ListItemsByCategory(ctx context.Context, categoryID int64) ([]*model.Item, error)
	ListRecentItems(ctx context.Context, limit int) ([]*model.Item, error)
	UpdateItem(ctx context.Context, item *model.Item) error
	DeleteItem(ctx context.Context, id int64) error
}

// Catalog implements the catalog business logic over an injected Store.
// Ownership is enforced here even though the route guards also check it,
// so the invariant holds for any caller.
type Catalog struct {
	store   Store
	metrics metrics.Recorder
}

// NewCatalog creates a new Catalog service.
func NewCatalog(store Store, recorder metrics.Recorder) *Catalog {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Catalog{store: store, metrics: recorder}
}

// FrontPage bundles the catalog landing page data.
type FrontPage struct {
	Categories  []*model.Category
	RecentItems []*model.Item
}

// Front returns all categories plus the latest items.
func (s *Catalog) Front(ctx context.Context) (*FrontPage, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	recent, err := s.store.ListRecentItems(ctx, recentItemLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent items: %w", err)
	}

	return &FrontPage{Categories: categories, RecentItems: recent}, nil
}

// Categories returns all categories.
func (s *Catalog) Categories(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Category resolves a category by id.
func (s *Catalog) Category(ctx context.Context, id int64) (*model.Category, error) {
	category, err := s.store.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

// CategoryItems returns all items in a category.
func (s *Catalog) CategoryItems(ctx context.Context, categoryID int64) ([]*model.Item, error) {
	items, err := s.store.ListItemsByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// Item resolves an item by its category and item ids. An item id paired
// with the wrong category does not resolve.
func (s *Catalog) Item(ctx context.Context, categoryID, itemID int64) (*model.Item, error) {
	item, err := s.store.GetItem(ctx, categoryID, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// CreateCategory creates a category owned by the given user.
func (s *Catalog) CreateCategory(ctx context.Context, name string, ownerID int64) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	category := &model.Category{
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.metrics.IncCategoryCreated()
	return category, nil
}

// RenameCategory renames a category the user owns.
func (s *Catalog) RenameCategory(ctx context.Context, id int64, name string, userID int64) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	category, err := s.Category(ctx, id)
	if err != nil {
		return nil, err
	}
	if !category.OwnedBy(userID) {
		return nil, ErrNotOwner
	}

	if err := s.store.UpdateCategoryName(ctx, id, name); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("rename category: %w", err)
	}

	category.Name = name
	s.metrics.IncCategoryUpdated()
	return category, nil
}

// DeleteCategory deletes a category the user owns, along with its items.
func (s *Catalog) DeleteCategory(ctx context.Context, id, userID int64) error {
	category, err := s.Category(ctx, id)
	if err != nil {
		return err
	}
	if !category.OwnedBy(userID) {
		return ErrNotOwner
	}

	if err := s.store.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("delete category: %w", err)
	}

	s.metrics.IncCategoryDeleted()
	return nil
}

// ItemInput carries submitted item form fields. A nil pointer means the
// field was absent from the form and keeps its stored value.
type ItemInput struct {
	Name        *string
	Description *string
	Picture     *string
}

// CreateItem creates an item in an existing category, owned by the
// given user.
func (s *Catalog) CreateItem(ctx context.Context, categoryID int64, in ItemInput, ownerID int64) (*model.Item, error) {
	if _, err := s.Category(ctx, categoryID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(deref(in.Name))
	if name == "" {
		return nil, ErrEmptyName
	}

	item := &model.Item{
		Name:        name,
		Description: deref(in.Description),
		Picture:     deref(in.Picture),
		CategoryID:  categoryID,
		OwnerID:     ownerID,
		CreatedAt:   time.Now(),
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	s.metrics.IncItemCreated()
	return item, nil
}

// UpdateItem applies the submitted fields to an item the user owns. The
// row is re-fetched first and only present fields are changed.
func (s *Catalog) UpdateItem(ctx context.Context, categoryID, itemID int64, in ItemInput, userID int64) (*model.Item, error) {
	item, err := s.Item(ctx, categoryID, itemID)
	if err != nil {
		return nil, err
	}
	if !item.OwnedBy(userID) {
		return nil, ErrNotOwner
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
		item.Name = name
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Picture != nil {
		item.Picture = *in.Picture
	}

	if err := s.store.UpdateItem(ctx, item); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}

	s.metrics.IncItemUpdated()
	return item, nil
}

// DeleteItem deletes an item the user owns.
func (s *Catalog) DeleteItem(ctx context.Context, categoryID, itemID, userID int64) error {
	item, err := s.Item(ctx, categoryID, itemID)
	if err != nil {
		return err
	}
	if !item.OwnedBy(userID) {
		return ErrNotOwner
	}

	if err := s.store.DeleteItem(ctx, item.ID); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("delete item: %w", err)
	}

	s.metrics.IncItemDeleted()
	return nil
}

// UserByEmail resolves a user by the session's email.
func (s *Catalog) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// EnsureUser resolves the local user for an external profile, creating
// one on first login. Existing users are never updated.
func (s *Catalog) EnsureUser(ctx context.Context, name, email, picture string) (*model.User, error) {
	user, err := s.store.GetOrCreateUser(ctx, &model.User{
		Name:    name,
		Email:   email,
		Picture: picture,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	return user, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
