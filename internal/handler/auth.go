package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/tabithajarvis/CatalogApp/internal/handler/dto"
	"github.com/tabithajarvis/CatalogApp/internal/metrics"
	"github.com/tabithajarvis/CatalogApp/internal/oauth"
	"github.com/tabithajarvis/CatalogApp/internal/service"
	"github.com/tabithajarvis/CatalogApp/internal/session"
	"github.com/tabithajarvis/CatalogApp/internal/view"
)

// AuthHandler serves the login page and the OAuth handshake endpoints.
type AuthHandler struct {
	site
	svc       *service.Catalog
	connector *oauth.Connector
	metrics   metrics.Recorder
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.Catalog, sessions session.Store, v *view.Renderer, connector *oauth.Connector, recorder metrics.Recorder, logger *slog.Logger) *AuthHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthHandler{
		site:      site{logger: logger, sessions: sessions, view: v},
		svc:       svc,
		connector: connector,
		metrics:   recorder,
	}
}

// loginPage is the data for the login view.
type loginPage struct {
	ClientID string
	State    string
}

// Login handles GET /login. A fresh state nonce is stored on the
// session; the subsequent gconnect call must echo it back.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	state, err := oauth.NewState()
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	sess.State = state
	if err := h.sessions.Save(r.Context(), w, sess); err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, sess, "login", view.Page{
		Title: "Sign in",
		Data:  loginPage{ClientID: h.connector.ClientID(), State: state},
	})
}

// Logout handles GET /logout. The provider credential is revoked on a
// best-effort basis before the session's auth state is cleared.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	if sess.Credentials != "" {
		if token, err := credentialToken(sess); err == nil {
			if err := h.connector.Revoke(r.Context(), token.AccessToken); err != nil {
				h.logger.Warn("token revocation on logout failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}

	sess.ClearAuth()
	h.redirectFlash(w, r, sess, "/catalog", "You have been logged out.", http.StatusFound)
}

// GConnect handles POST /gconnect: the server side of the Google
// sign-in handshake. The request carries the state nonce as a query
// parameter and the one-time authorization code as the body.
func (h *AuthHandler) GConnect(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	if sess.State == "" || r.URL.Query().Get("state") != sess.State {
		h.metrics.IncLoginFailed()
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid state parameter"})
		return
	}

	code, err := io.ReadAll(r.Body)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	token, err := h.connector.Exchange(r.Context(), string(code))
	if err != nil {
		h.metrics.IncLoginFailed()
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "failed to upgrade the authorization code"})
		return
	}

	externalID, err := oauth.ExternalID(token)
	if err != nil {
		h.metrics.IncLoginFailed()
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid credential"})
		return
	}

	if _, err := h.connector.VerifyToken(r.Context(), token.AccessToken, externalID); err != nil {
		h.metrics.IncLoginFailed()
		switch {
		case errors.Is(err, oauth.ErrSubjectMismatch):
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "token's user id does not match the given user"})
		case errors.Is(err, oauth.ErrAudienceMismatch):
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "token's client id does not match this application"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "token verification failed"})
		}
		return
	}

	if sess.Credentials != "" && sess.ExternalID == externalID {
		writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "current user is already connected"})
		return
	}

	creds, err := json.Marshal(token)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	sess.Provider = "google"
	sess.Credentials = string(creds)
	sess.ExternalID = externalID

	profile, err := h.connector.Userinfo(r.Context(), token)
	if err != nil {
		h.metrics.IncLoginFailed()
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to fetch user info"})
		return
	}

	user, err := h.svc.EnsureUser(r.Context(), profile.Name, profile.Email, profile.Picture)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	sess.UserID = user.ID
	sess.Username = user.Name
	sess.Email = user.Email
	sess.Picture = user.Picture
	if err := h.sessions.Save(r.Context(), w, sess); err != nil {
		h.serverError(w, r, err)
		return
	}

	h.metrics.IncLoginSucceeded()
	h.logger.Info("user connected",
		slog.Int64("user_id", user.ID),
		slog.String("provider", sess.Provider),
	)

	writeJSON(w, http.StatusOK, dto.ConnectResponse{
		Message:  "successfully connected",
		Username: user.Name,
		Email:    user.Email,
	})
}

// GDisconnect handles GET /gdisconnect: revokes the stored credential
// and clears the session's auth state.
func (h *AuthHandler) GDisconnect(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	if sess.Credentials == "" {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "current user not connected"})
		return
	}

	token, err := credentialToken(sess)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	if err := h.connector.Revoke(r.Context(), token.AccessToken); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "failed to revoke token for given user"})
		return
	}

	sess.ClearAuth()
	if err := h.sessions.Save(r.Context(), w, sess); err != nil {
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "successfully disconnected"})
}

// credentialToken unmarshals the session's stored token bundle.
func credentialToken(sess *session.Session) (*oauth2.Token, error) {
	var token oauth2.Token
	if err := json.Unmarshal([]byte(sess.Credentials), &token); err != nil {
		return nil, err
	}
	return &token, nil
}
