package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tabithajarvis/CatalogApp/internal/metrics"
	"github.com/tabithajarvis/CatalogApp/internal/middleware"
	"github.com/tabithajarvis/CatalogApp/internal/oauth"
	"github.com/tabithajarvis/CatalogApp/internal/service"
	"github.com/tabithajarvis/CatalogApp/internal/session"
	"github.com/tabithajarvis/CatalogApp/internal/view"
)

// Deps bundles everything the router needs.
type Deps struct {
	Logger    *slog.Logger
	Catalog   *service.Catalog
	Sessions  session.Store
	View      *view.Renderer
	Connector *oauth.Connector
	Metrics   metrics.Recorder

	// Health probe targets; nil means not configured.
	DB        Pinger
	SessionDB Pinger
}

// NewRouter configures the chi router with all routes, the global
// middleware chain and the per-route guards.
func NewRouter(d Deps) *chi.Mux {
	catalog := NewCatalogHandler(d.Catalog, d.Sessions, d.View, d.Logger)
	item := NewItemHandler(d.Catalog, d.Sessions, d.View, d.Logger)
	auth := NewAuthHandler(d.Catalog, d.Sessions, d.View, d.Connector, d.Metrics, d.Logger)
	health := NewHealthHandler(d.DB, d.SessionDB)

	guards := &middleware.Guards{
		Logger:   d.Logger,
		Sessions: d.Sessions,
		Catalog:  d.Catalog,
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recoverer(d.Logger))

	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	r.Get("/", catalog.Front)
	r.Get("/login", auth.Login)
	r.Get("/logout", auth.Logout)
	r.Post("/gconnect", auth.GConnect)
	r.Get("/gdisconnect", auth.GDisconnect)

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/", catalog.Front)
		r.Get("/JSON", catalog.FrontJSON)
		r.With(guards.LoginRequired).Get("/new", catalog.NewForm)
		r.With(guards.LoginRequired).Post("/new", catalog.Create)

		r.Route("/{categoryID}", func(r chi.Router) {
			r.With(guards.CategoryExists).Get("/", catalog.Show)
			r.With(guards.OwnsCategory).Get("/edit", catalog.EditForm)
			r.With(guards.OwnsCategory).Post("/edit", catalog.Update)
			r.With(guards.OwnsCategory).Get("/delete", catalog.DeleteForm)
			r.With(guards.OwnsCategory).Post("/delete", catalog.Delete)

			r.Route("/items", func(r chi.Router) {
				r.With(guards.CategoryExists).Get("/", catalog.Show)
				r.With(guards.CategoryExists).Get("/JSON", catalog.ItemsJSON)
				r.With(guards.CategoryExists, guards.LoginRequired).Get("/new", item.NewForm)
				r.With(guards.CategoryExists, guards.LoginRequired).Post("/new", item.Create)

				r.Route("/{itemID}", func(r chi.Router) {
					r.With(guards.ItemExists).Get("/", item.Show)
					r.With(guards.ItemExists).Get("/JSON", item.ShowJSON)
					r.With(guards.OwnsItem).Get("/edit", item.EditForm)
					r.With(guards.OwnsItem).Post("/edit", item.Update)
					r.With(guards.OwnsItem).Get("/delete", item.DeleteForm)
					r.With(guards.OwnsItem).Post("/delete", item.Delete)
				})
			})
		})
	})

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	return r
}
