// Package handler provides the HTTP handlers for the catalog pages,
// their JSON mirrors and the OAuth endpoints.
package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tabithajarvis/CatalogApp/internal/handler/dto"
	"github.com/tabithajarvis/CatalogApp/internal/middleware"
	"github.com/tabithajarvis/CatalogApp/internal/session"
	"github.com/tabithajarvis/CatalogApp/internal/view"
)

// site bundles the dependencies every page handler shares and the
// render/redirect plumbing built on them.
type site struct {
	logger   *slog.Logger
	sessions session.Store
	view     *view.Renderer
}

// render consumes the session's flashes into the page and writes it.
// The session is saved first when flashes were consumed so a reload
// does not repeat them.
func (s *site) render(w http.ResponseWriter, r *http.Request, sess *session.Session, name string, page view.Page) {
	page.Flashes = sess.ConsumeFlashes()
	page.Username = sess.Username
	if len(page.Flashes) > 0 {
		if err := s.sessions.Save(r.Context(), w, sess); err != nil {
			s.serverError(w, r, err)
			return
		}
	}

	var buf bytes.Buffer
	if err := s.view.Render(&buf, name, page); err != nil {
		s.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// redirectFlash queues a flash message and redirects. Mutating POSTs
// pass http.StatusSeeOther so the browser follows up with a GET.
func (s *site) redirectFlash(w http.ResponseWriter, r *http.Request, sess *session.Session, target, msg string, code int) {
	sess.AddFlash(msg)
	if err := s.sessions.Save(r.Context(), w, sess); err != nil {
		s.logger.Error("failed to save session",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
	}
	http.Redirect(w, r, target, code)
}

func (s *site) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("handler failure",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// NotFound handles 404 responses.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "resource not found"})
}

// MethodNotAllowed handles 405 responses.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, dto.ErrorResponse{Error: "method not allowed"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		_ = err
	}
}
