// Package session provides the Redis-backed browser session store.
// A session carries the transient authentication state of one browser:
// the in-flight OAuth state nonce, the provider credential bundle, the
// resolved identity attributes and any queued flash messages.
package session

import (
	"context"
	"net/http"
)

// Session holds per-browser transient state.
type Session struct {
	ID          string   `json:"-"`
	State       string   `json:"state,omitempty"`
	Provider    string   `json:"provider,omitempty"`
	Credentials string   `json:"credentials,omitempty"`
	ExternalID  string   `json:"external_id,omitempty"`
	UserID      int64    `json:"user_id,omitempty"`
	Username    string   `json:"username,omitempty"`
	Email       string   `json:"email,omitempty"`
	Picture     string   `json:"picture,omitempty"`
	Flashes     []string `json:"flashes,omitempty"`
}

// LoggedIn reports whether the session carries a resolved identity.
func (s *Session) LoggedIn() bool {
	return s.Email != ""
}

// ClearAuth removes every authentication field from the session.
// Flash messages survive so a logout confirmation can still render.
func (s *Session) ClearAuth() {
	s.State = ""
	s.Provider = ""
	s.Credentials = ""
	s.ExternalID = ""
	s.UserID = 0
	s.Username = ""
	s.Email = ""
	s.Picture = ""
}

// AddFlash queues a user-visible message for the next rendered page.
func (s *Session) AddFlash(msg string) {
	s.Flashes = append(s.Flashes, msg)
}

// ConsumeFlashes returns the queued messages and clears the queue.
func (s *Session) ConsumeFlashes() []string {
	flashes := s.Flashes
	s.Flashes = nil
	return flashes
}

// Store is the session surface handlers and guards depend on.
// *Manager is the production implementation.
type Store interface {
	Get(ctx context.Context, r *http.Request) (*Session, error)
	Save(ctx context.Context, w http.ResponseWriter, s *Session) error
	Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error
}
