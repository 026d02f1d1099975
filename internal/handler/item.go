package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tabithajarvis/CatalogApp/internal/handler/dto"
	"github.com/tabithajarvis/CatalogApp/internal/middleware"
	"github.com/tabithajarvis/CatalogApp/internal/model"
	"github.com/tabithajarvis/CatalogApp/internal/service"
	"github.com/tabithajarvis/CatalogApp/internal/session"
	"github.com/tabithajarvis/CatalogApp/internal/view"
)

// ItemHandler serves the item pages within a category.
type ItemHandler struct {
	site
	svc *service.Catalog
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(svc *service.Catalog, sessions session.Store, v *view.Renderer, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		site: site{logger: logger, sessions: sessions, view: v},
		svc:  svc,
	}
}

// itemPage is the data for the item detail view.
type itemPage struct {
	Category *model.Category
	Item     *model.Item
	CanEdit  bool
}

// itemFormPage is the data for the new/edit item forms.
type itemFormPage struct {
	Action string
	Item   *model.Item
}

// NewForm handles GET /catalog/{categoryID}/items/new.
func (h *ItemHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	category := middleware.CategoryFrom(r.Context())

	h.render(w, r, sess, "item_form", view.Page{
		Title: "New Item in " + category.Name,
		Data:  itemFormPage{Action: fmt.Sprintf("/catalog/%d/items/new", category.ID)},
	})
}

// Create handles POST /catalog/{categoryID}/items/new.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	user := middleware.UserFrom(r.Context())
	category := middleware.CategoryFrom(r.Context())

	item, err := h.svc.CreateItem(r.Context(), category.ID, itemInput(r), user.ID)
	if errors.Is(err, service.ErrEmptyName) {
		h.redirectFlash(w, r, sess,
			fmt.Sprintf("/catalog/%d/items/new", category.ID),
			"The item name cannot be blank.", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.mutationError(w, r, sess, err, fmt.Sprintf("/catalog/%d/items/new", category.ID))
		return
	}

	h.redirectFlash(w, r, sess,
		fmt.Sprintf("/catalog/%d/items/%d", category.ID, item.ID),
		"Item created.", http.StatusSeeOther)
}

// Show handles GET /catalog/{categoryID}/items/{itemID}. Both rows
// were resolved by the existence guard.
func (h *ItemHandler) Show(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	category := middleware.CategoryFrom(r.Context())
	item := middleware.ItemFrom(r.Context())

	h.render(w, r, sess, "item", view.Page{
		Title: item.Name,
		Data: itemPage{
			Category: category,
			Item:     item,
			CanEdit:  sess.LoggedIn() && item.OwnedBy(sess.UserID),
		},
	})
}

// ShowJSON handles GET /catalog/{categoryID}/items/{itemID}/JSON.
func (h *ItemHandler) ShowJSON(w http.ResponseWriter, r *http.Request) {
	category := middleware.CategoryFrom(r.Context())
	item := middleware.ItemFrom(r.Context())
	writeJSON(w, http.StatusOK, dto.ToItemResponse(item, category))
}

// EditForm handles GET /catalog/{categoryID}/items/{itemID}/edit.
func (h *ItemHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	category := middleware.CategoryFrom(r.Context())
	item := middleware.ItemFrom(r.Context())

	h.render(w, r, sess, "item_form", view.Page{
		Title: "Edit " + item.Name,
		Data: itemFormPage{
			Action: fmt.Sprintf("/catalog/%d/items/%d/edit", category.ID, item.ID),
			Item:   item,
		},
	})
}

// Update handles POST /catalog/{categoryID}/items/{itemID}/edit. Only
// fields present in the form are applied.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	user := middleware.UserFrom(r.Context())
	category := middleware.CategoryFrom(r.Context())
	item := middleware.ItemFrom(r.Context())

	detail := fmt.Sprintf("/catalog/%d/items/%d", category.ID, item.ID)

	if _, err := h.svc.UpdateItem(r.Context(), category.ID, item.ID, itemInput(r), user.ID); err != nil {
		h.mutationError(w, r, sess, err, detail+"/edit")
		return
	}

	h.redirectFlash(w, r, sess, detail, "Item updated.", http.StatusSeeOther)
}

// DeleteForm handles GET /catalog/{categoryID}/items/{itemID}/delete.
func (h *ItemHandler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	category := middleware.CategoryFrom(r.Context())
	item := middleware.ItemFrom(r.Context())

	h.render(w, r, sess, "item_delete", view.Page{
		Title: "Delete " + item.Name,
		Data:  itemPage{Category: category, Item: item},
	})
}

// Delete handles POST /catalog/{categoryID}/items/{itemID}/delete.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	user := middleware.UserFrom(r.Context())
	category := middleware.CategoryFrom(r.Context())
	item := middleware.ItemFrom(r.Context())

	if err := h.svc.DeleteItem(r.Context(), category.ID, item.ID, user.ID); err != nil {
		h.mutationError(w, r, sess, err, fmt.Sprintf("/catalog/%d/items/%d", category.ID, item.ID))
		return
	}

	h.redirectFlash(w, r, sess,
		fmt.Sprintf("/catalog/%d", category.ID),
		"Item deleted.", http.StatusSeeOther)
}

// itemInput maps the submitted form onto the service input, keeping
// absent fields nil so stored values survive partial forms.
func itemInput(r *http.Request) service.ItemInput {
	var in service.ItemInput
	if err := r.ParseForm(); err != nil {
		return in
	}
	if v, ok := r.PostForm["name"]; ok && len(v) > 0 {
		in.Name = &v[0]
	}
	if v, ok := r.PostForm["description"]; ok && len(v) > 0 {
		in.Description = &v[0]
	}
	if v, ok := r.PostForm["picture"]; ok && len(v) > 0 {
		in.Picture = &v[0]
	}
	return in
}
