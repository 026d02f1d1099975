package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tabithajarvis/CatalogApp/internal/model"
	"github.com/tabithajarvis/CatalogApp/internal/service"
	"github.com/tabithajarvis/CatalogApp/internal/session"
)

const (
	userKey     contextKey = "current_user"
	categoryKey contextKey = "category"
	itemKey     contextKey = "item"
)

// Guards gate handlers on login state and resource ownership. A failed
// check short-circuits to a redirect with a flash message instead of an
// error page. Existence is always checked before ownership so the owner
// id of a missing row is never read.
type Guards struct {
	Logger   *slog.Logger
	Sessions session.Store
	Catalog  *service.Catalog
}

// UserFrom retrieves the authenticated user stored by a guard.
func UserFrom(ctx context.Context) *model.User {
	u, _ := ctx.Value(userKey).(*model.User)
	return u
}

// CategoryFrom retrieves the category resolved by a guard.
func CategoryFrom(ctx context.Context) *model.Category {
	c, _ := ctx.Value(categoryKey).(*model.Category)
	return c
}

// ItemFrom retrieves the item resolved by a guard.
func ItemFrom(ctx context.Context) *model.Item {
	i, _ := ctx.Value(itemKey).(*model.Item)
	return i
}

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// LoginRequired requires the session to resolve to a known user, else
// redirects to the login page.
func (g *Guards) LoginRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, sess, ok := g.currentUser(w, r)
		if !ok {
			return
		}
		if user == nil {
			g.redirectFlash(w, r, sess, "/login", "You must be logged in to do that.")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// CategoryExists requires the path's category id to resolve to a row,
// else redirects to the catalog root.
func (g *Guards) CategoryExists(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := g.Sessions.Get(r.Context(), r)
		if err != nil {
			g.fail(w, r, err)
			return
		}
		category, ok := g.resolveCategory(w, r, sess)
		if !ok {
			return
		}
		ctx := context.WithValue(r.Context(), categoryKey, category)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ItemExists requires both the category and the item in the path to
// resolve. A missing category redirects to the catalog root; a missing
// item redirects to the category view.
func (g *Guards) ItemExists(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := g.Sessions.Get(r.Context(), r)
		if err != nil {
			g.fail(w, r, err)
			return
		}
		category, item, ok := g.resolveItem(w, r, sess)
		if !ok {
			return
		}
		ctx := context.WithValue(r.Context(), categoryKey, category)
		ctx = context.WithValue(ctx, itemKey, item)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OwnsCategory requires the category to exist and the current user to
// be its owner. Non-owners are sent to the category's read-only view.
func (g *Guards) OwnsCategory(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, sess, ok := g.currentUser(w, r)
		if !ok {
			return
		}
		if user == nil {
			g.redirectFlash(w, r, sess, "/login", "You must be logged in to do that.")
			return
		}
		category, ok := g.resolveCategory(w, r, sess)
		if !ok {
			return
		}
		if !category.OwnedBy(user.ID) {
			g.redirectFlash(w, r, sess,
				fmt.Sprintf("/catalog/%d", category.ID),
				"Only the owner of this category can change it.")
			return
		}
		ctx := WithUser(r.Context(), user)
		ctx = context.WithValue(ctx, categoryKey, category)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OwnsItem requires the item to exist (category first, then item) and
// the current user to be its owner. Non-owners are sent to the item's
// read-only view.
func (g *Guards) OwnsItem(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, sess, ok := g.currentUser(w, r)
		if !ok {
			return
		}
		if user == nil {
			g.redirectFlash(w, r, sess, "/login", "You must be logged in to do that.")
			return
		}
		category, item, ok := g.resolveItem(w, r, sess)
		if !ok {
			return
		}
		if !item.OwnedBy(user.ID) {
			g.redirectFlash(w, r, sess,
				fmt.Sprintf("/catalog/%d/items/%d", category.ID, item.ID),
				"Only the owner of this item can change it.")
			return
		}
		ctx := WithUser(r.Context(), user)
		ctx = context.WithValue(ctx, categoryKey, category)
		ctx = context.WithValue(ctx, itemKey, item)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser resolves the session's email against the user store.
// Returns a nil user when the session carries no resolvable identity.
// The bool is false when the request has already been answered.
func (g *Guards) currentUser(w http.ResponseWriter, r *http.Request) (*model.User, *session.Session, bool) {
	sess, err := g.Sessions.Get(r.Context(), r)
	if err != nil {
		g.fail(w, r, err)
		return nil, nil, false
	}
	if !sess.LoggedIn() {
		return nil, sess, true
	}

	user, err := g.Catalog.UserByEmail(r.Context(), sess.Email)
	if errors.Is(err, service.ErrUserNotFound) {
		return nil, sess, true
	}
	if err != nil {
		g.fail(w, r, err)
		return nil, nil, false
	}

	return user, sess, true
}

// resolveCategory parses the path's category id and loads the row.
func (g *Guards) resolveCategory(w http.ResponseWriter, r *http.Request, sess *session.Session) (*model.Category, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "categoryID"), 10, 64)
	if err != nil {
		g.redirectFlash(w, r, sess, "/catalog", "That category does not exist.")
		return nil, false
	}

	category, err := g.Catalog.Category(r.Context(), id)
	if errors.Is(err, service.ErrCategoryNotFound) {
		g.redirectFlash(w, r, sess, "/catalog", "That category does not exist.")
		return nil, false
	}
	if err != nil {
		g.fail(w, r, err)
		return nil, false
	}

	return category, true
}

// resolveItem loads the category first, then the item within it.
func (g *Guards) resolveItem(w http.ResponseWriter, r *http.Request, sess *session.Session) (*model.Category, *model.Item, bool) {
	category, ok := g.resolveCategory(w, r, sess)
	if !ok {
		return nil, nil, false
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		g.redirectFlash(w, r, sess, fmt.Sprintf("/catalog/%d", category.ID), "That item does not exist.")
		return nil, nil, false
	}

	item, err := g.Catalog.Item(r.Context(), category.ID, id)
	if errors.Is(err, service.ErrItemNotFound) {
		g.redirectFlash(w, r, sess, fmt.Sprintf("/catalog/%d", category.ID), "That item does not exist.")
		return nil, nil, false
	}
	if err != nil {
		g.fail(w, r, err)
		return nil, nil, false
	}

	return category, item, true
}

// redirectFlash queues a flash message on the session and redirects.
func (g *Guards) redirectFlash(w http.ResponseWriter, r *http.Request, sess *session.Session, target, msg string) {
	sess.AddFlash(msg)
	if err := g.Sessions.Save(r.Context(), w, sess); err != nil {
		g.Logger.Error("failed to save session",
			slog.String("request_id", GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (g *Guards) fail(w http.ResponseWriter, r *http.Request, err error) {
	g.Logger.Error("guard failure",
		slog.String("request_id", GetRequestID(r.Context())),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
