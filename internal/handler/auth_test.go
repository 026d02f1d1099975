package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/tabithajarvis/CatalogApp/internal/oauth"
	"github.com/tabithajarvis/CatalogApp/internal/session"
)

func TestLogin_StoresStateNonce(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/login", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var state string
	for _, s := range app.sessions.data {
		state = s.State
	}
	if state == "" {
		t.Fatal("expected state nonce stored on the session")
	}
	if !strings.Contains(rec.Body.String(), state) {
		t.Error("expected state nonce in the rendered login page")
	}
}

func TestGConnect_Success(t *testing.T) {
	app := newTestApp(t)
	cookie := app.sessions.seed(&session.Session{State: "nonce-abc"})

	rec := app.doBody(t, http.MethodPost, "/gconnect?state=nonce-abc", "auth-code", cookie)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["message"] != "successfully connected" {
		t.Errorf("unexpected message: %s", body["message"])
	}
	if body["email"] != "ada@example.com" {
		t.Errorf("unexpected email: %s", body["email"])
	}

	user, err := app.store.GetUserByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatal("expected user created on first login")
	}

	sess := app.sessions.data[cookie.Value]
	if sess.Email != "ada@example.com" || sess.UserID != user.ID {
		t.Errorf("session not populated: %+v", sess)
	}
	if sess.Credentials == "" || sess.ExternalID != "sub-1" {
		t.Errorf("credentials not stored: %+v", sess)
	}

	if got := app.metrics.Snapshot().LoginSucceeded; got != 1 {
		t.Errorf("expected one successful login recorded, got %d", got)
	}
}

func TestGConnect_SecondLoginResolvesSameUser(t *testing.T) {
	app := newTestApp(t)

	first := app.sessions.seed(&session.Session{State: "nonce-1"})
	if rec := app.doBody(t, http.MethodPost, "/gconnect?state=nonce-1", "auth-code", first); rec.Code != http.StatusOK {
		t.Fatalf("first login failed: %d", rec.Code)
	}

	second := app.sessions.seed(&session.Session{State: "nonce-2"})
	if rec := app.doBody(t, http.MethodPost, "/gconnect?state=nonce-2", "auth-code", second); rec.Code != http.StatusOK {
		t.Fatalf("second login failed: %d", rec.Code)
	}

	count := 0
	for _, u := range app.store.users {
		if u.Email == "ada@example.com" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected one user row for the email, got %d", count)
	}
}

func TestGConnect_BadState(t *testing.T) {
	app := newTestApp(t)
	cookie := app.sessions.seed(&session.Session{State: "nonce-abc"})

	rec := app.doBody(t, http.MethodPost, "/gconnect?state=wrong", "auth-code", cookie)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := app.metrics.Snapshot().LoginFailed; got != 1 {
		t.Errorf("expected one failed login recorded, got %d", got)
	}
}

func TestGConnect_ExchangeRejected(t *testing.T) {
	app := newTestApp(t)
	app.provider.ExchangeStatus = http.StatusBadRequest
	cookie := app.sessions.seed(&session.Session{State: "nonce-abc"})

	rec := app.doBody(t, http.MethodPost, "/gconnect?state=nonce-abc", "bad-code", cookie)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGConnect_TokenInfoError(t *testing.T) {
	app := newTestApp(t)
	app.provider.TokenInfo = oauth.TokenInfo{Error: "invalid_token"}
	cookie := app.sessions.seed(&session.Session{State: "nonce-abc"})

	rec := app.doBody(t, http.MethodPost, "/gconnect?state=nonce-abc", "auth-code", cookie)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestGConnect_SubjectMismatch(t *testing.T) {
	app := newTestApp(t)
	app.provider.TokenInfo = oauth.TokenInfo{UserID: "someone-else", Audience: "catalog-client"}
	cookie := app.sessions.seed(&session.Session{State: "nonce-abc"})

	rec := app.doBody(t, http.MethodPost, "/gconnect?state=nonce-abc", "auth-code", cookie)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGConnect_AudienceMismatch(t *testing.T) {
	app := newTestApp(t)
	app.provider.TokenInfo = oauth.TokenInfo{UserID: "sub-1", Audience: "another-app"}
	cookie := app.sessions.seed(&session.Session{State: "nonce-abc"})

	rec := app.doBody(t, http.MethodPost, "/gconnect?state=nonce-abc", "auth-code", cookie)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGConnect_AlreadyConnected(t *testing.T) {
	app := newTestApp(t)
	cookie := app.sessions.seed(&session.Session{
		State:       "nonce-abc",
		Credentials: `{"access_token":"access-token"}`,
		ExternalID:  "sub-1",
	})

	rec := app.doBody(t, http.MethodPost, "/gconnect?state=nonce-abc", "auth-code", cookie)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(body["message"], "already connected") {
		t.Errorf("unexpected message: %s", body["message"])
	}
}

func TestGDisconnect_NotConnected(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/gdisconnect", nil)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGDisconnect_RevokeRejected(t *testing.T) {
	app := newTestApp(t)
	app.provider.RevokeStatus = http.StatusBadRequest
	cookie := app.sessions.seed(&session.Session{
		Credentials: `{"access_token":"access-token"}`,
		ExternalID:  "sub-1",
		Email:       "ada@example.com",
	})

	rec := app.do(t, http.MethodGet, "/gdisconnect", nil, cookie)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if app.sessions.data[cookie.Value].Credentials == "" {
		t.Error("rejected revoke must keep the stored credential")
	}
}

func TestGDisconnect_Success(t *testing.T) {
	app := newTestApp(t)
	cookie := app.sessions.seed(&session.Session{
		Credentials: `{"access_token":"access-token"}`,
		ExternalID:  "sub-1",
		Email:       "ada@example.com",
	})

	rec := app.do(t, http.MethodGet, "/gdisconnect", nil, cookie)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	sess := app.sessions.data[cookie.Value]
	if sess.Credentials != "" || sess.Email != "" {
		t.Errorf("expected cleared session, got %+v", sess)
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	app := newTestApp(t)
	cookie := app.sessions.seed(&session.Session{
		Credentials: `{"access_token":"access-token"}`,
		Email:       "ada@example.com",
		Username:    "Ada Lovelace",
	})

	rec := app.do(t, http.MethodGet, "/logout", nil, cookie)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/catalog" {
		t.Errorf("expected redirect to /catalog, got %s", loc)
	}

	sess := app.sessions.data[cookie.Value]
	if sess.Email != "" || sess.Credentials != "" {
		t.Errorf("expected cleared auth state, got %+v", sess)
	}
	if len(sess.Flashes) == 0 {
		t.Error("expected a logout flash message")
	}
}
