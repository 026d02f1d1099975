// Package dto provides the JSON shapes of the catalog's export
// endpoints. Owner ids and picture URLs are never serialized.
package dto

import "github.com/tabithajarvis/CatalogApp/internal/model"

// CategoryJSON is a category in API responses.
type CategoryJSON struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// ItemJSON is an item in API responses. Category is the owning
// category's name, present only on the item detail endpoint.
type ItemJSON struct {
	Name        string `json:"name"`
	ID          int64  `json:"id"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// CatalogResponse is the body of GET /catalog/JSON.
type CatalogResponse struct {
	Categories []CategoryJSON `json:"categories"`
}

// CategoryItemsResponse is the body of GET /catalog/{id}/items/JSON.
type CategoryItemsResponse struct {
	Items []ItemJSON `json:"Items"`
}

// ItemResponse is the body of GET /catalog/{id}/items/{id}/JSON.
type ItemResponse struct {
	Item ItemJSON `json:"Item"`
}

// ConnectResponse is the success body of POST /gconnect.
type ConnectResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// MessageResponse is a bare informational JSON body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is a bare error JSON body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToCatalogResponse converts categories for the catalog export.
func ToCatalogResponse(categories []*model.Category) CatalogResponse {
	out := CatalogResponse{Categories: make([]CategoryJSON, 0, len(categories))}
	for _, c := range categories {
		out.Categories = append(out.Categories, CategoryJSON{Name: c.Name, ID: c.ID})
	}
	return out
}

// ToCategoryItemsResponse converts a category's items for export.
func ToCategoryItemsResponse(items []*model.Item) CategoryItemsResponse {
	out := CategoryItemsResponse{Items: make([]ItemJSON, 0, len(items))}
	for _, i := range items {
		out.Items = append(out.Items, ItemJSON{
			Name:        i.Name,
			ID:          i.ID,
			Description: i.Description,
		})
	}
	return out
}

// ToItemResponse converts one item, naming its category, for export.
func ToItemResponse(item *model.Item, category *model.Category) ItemResponse {
	return ItemResponse{Item: ItemJSON{
		Name:        item.Name,
		ID:          item.ID,
		Description: item.Description,
		Category:    category.Name,
	}}
}
