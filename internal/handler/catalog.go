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

// CatalogHandler serves the front page and the category pages.
type CatalogHandler struct {
	site
	svc *service.Catalog
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(svc *service.Catalog, sessions session.Store, v *view.Renderer, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		site: site{logger: logger, sessions: sessions, view: v},
		svc:  svc,
	}
}

// categoryPage is the data for the category view.
type categoryPage struct {
	Category *model.Category
	Items    []*model.Item
	CanEdit  bool
}

// categoryFormPage is the data for the new/edit category forms.
type categoryFormPage struct {
	Action   string
	Category *model.Category
}

// Front handles GET / and GET /catalog.
func (h *CatalogHandler) Front(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	front, err := h.svc.Front(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, sess, "catalog", view.Page{Title: "Catalog", Data: front})
}

// FrontJSON handles GET /catalog/JSON.
func (h *CatalogHandler) FrontJSON(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Categories(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToCatalogResponse(categories))
}

// Show handles GET /catalog/{categoryID} and its /items alias. The
// category was resolved by the existence guard.
func (h *CatalogHandler) Show(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	category := middleware.CategoryFrom(r.Context())

	items, err := h.svc.CategoryItems(r.Context(), category.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, sess, "category", view.Page{
		Title: category.Name,
		Data: categoryPage{
			Category: category,
			Items:    items,
			CanEdit:  sess.LoggedIn() && category.OwnedBy(sess.UserID),
		},
	})
}

// ItemsJSON handles GET /catalog/{categoryID}/items/JSON.
func (h *CatalogHandler) ItemsJSON(w http.ResponseWriter, r *http.Request) {
	category := middleware.CategoryFrom(r.Context())

	items, err := h.svc.CategoryItems(r.Context(), category.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToCategoryItemsResponse(items))
}

// NewForm handles GET /catalog/new.
func (h *CatalogHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, sess, "category_form", view.Page{
		Title: "New Category",
		Data:  categoryFormPage{Action: "/catalog/new"},
	})
}

// Create handles POST /catalog/new.
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	user := middleware.UserFrom(r.Context())

	_, err = h.svc.CreateCategory(r.Context(), r.PostFormValue("name"), user.ID)
	if errors.Is(err, service.ErrEmptyName) {
		h.redirectFlash(w, r, sess, "/catalog/new", "The category name cannot be blank.", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.redirectFlash(w, r, sess, "/catalog", "Category created.", http.StatusSeeOther)
}

// EditForm handles GET /catalog/{categoryID}/edit.
func (h *CatalogHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	category := middleware.CategoryFrom(r.Context())

	h.render(w, r, sess, "category_form", view.Page{
		Title: "Edit " + category.Name,
		Data: categoryFormPage{
			Action:   fmt.Sprintf("/catalog/%d/edit", category.ID),
			Category: category,
		},
	})
}

// Update handles POST /catalog/{categoryID}/edit.
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	user := middleware.UserFrom(r.Context())
	category := middleware.CategoryFrom(r.Context())

	_, err = h.svc.RenameCategory(r.Context(), category.ID, r.PostFormValue("name"), user.ID)
	if err != nil {
		h.mutationError(w, r, sess, err, fmt.Sprintf("/catalog/%d/edit", category.ID))
		return
	}

	h.redirectFlash(w, r, sess, "/catalog", "Category renamed.", http.StatusSeeOther)
}

// DeleteForm handles GET /catalog/{categoryID}/delete.
func (h *CatalogHandler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	category := middleware.CategoryFrom(r.Context())

	h.render(w, r, sess, "category_delete", view.Page{
		Title: "Delete " + category.Name,
		Data:  categoryPage{Category: category},
	})
}

// Delete handles POST /catalog/{categoryID}/delete.
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	user := middleware.UserFrom(r.Context())
	category := middleware.CategoryFrom(r.Context())

	if err := h.svc.DeleteCategory(r.Context(), category.ID, user.ID); err != nil {
		h.mutationError(w, r, sess, err, fmt.Sprintf("/catalog/%d", category.ID))
		return
	}

	h.redirectFlash(w, r, sess, "/catalog", "Category deleted.", http.StatusSeeOther)
}

// mutationError sends recoverable mutation failures back into the flow
// with a flash; anything else is a server error. The guards make the
// ownership and existence branches unreachable for browser traffic but
// the service still reports them.
func (s *site) mutationError(w http.ResponseWriter, r *http.Request, sess *session.Session, err error, formURL string) {
	switch {
	case errors.Is(err, service.ErrEmptyName):
		s.redirectFlash(w, r, sess, formURL, "The name cannot be blank.", http.StatusSeeOther)
	case errors.Is(err, service.ErrNotOwner):
		s.redirectFlash(w, r, sess, "/catalog", "Only the owner can change this.", http.StatusSeeOther)
	case errors.Is(err, service.ErrCategoryNotFound), errors.Is(err, service.ErrItemNotFound):
		s.redirectFlash(w, r, sess, "/catalog", "That no longer exists.", http.StatusSeeOther)
	default:
		s.serverError(w, r, err)
	}
}
