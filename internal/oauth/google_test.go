package oauth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func TestNewState(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 10; i++ {
		state, err := NewState()
		if err != nil {
			t.Fatalf("NewState returned error: %v", err)
		}
		if len(state) != stateLength {
			t.Fatalf("expected state length %d, got %d", stateLength, len(state))
		}
		for _, r := range state {
			if !strings.ContainsRune(stateAlphabet, r) {
				t.Fatalf("state contains character outside alphabet: %q", r)
			}
		}
		if seen[state] {
			t.Fatal("NewState produced a duplicate nonce")
		}
		seen[state] = true
	}
}

// fakeIDToken builds an unsigned JWT-shaped token with the given subject.
func fakeIDToken(t *testing.T, sub string) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payload, err := json.Marshal(map[string]string{"sub": sub})
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

func tokenWithID(t *testing.T, sub string) *oauth2.Token {
	t.Helper()
	token := &oauth2.Token{AccessToken: "access-token"}
	return token.WithExtra(map[string]any{"id_token": fakeIDToken(t, sub)})
}

func TestExternalID(t *testing.T) {
	token := tokenWithID(t, "113000000000000000001")

	sub, err := ExternalID(token)
	if err != nil {
		t.Fatalf("ExternalID returned error: %v", err)
	}
	if sub != "113000000000000000001" {
		t.Errorf("unexpected subject: %s", sub)
	}
}

func TestExternalID_MissingIDToken(t *testing.T) {
	if _, err := ExternalID(&oauth2.Token{AccessToken: "x"}); !errors.Is(err, ErrNoIDToken) {
		t.Errorf("expected ErrNoIDToken, got %v", err)
	}
}

func TestExternalID_MalformedToken(t *testing.T) {
	token := (&oauth2.Token{}).WithExtra(map[string]any{"id_token": "not-a-jwt"})
	if _, err := ExternalID(token); !errors.Is(err, ErrNoIDToken) {
		t.Errorf("expected ErrNoIDToken, got %v", err)
	}
}

func newTestConnector(tokenInfo, userinfo, revoke, tokenURL string) *Connector {
	return NewConnector(Config{
		ClientID:     "catalog-client",
		ClientSecret: "secret",
		RedirectURL:  "postmessage",
		TokenURL:     tokenURL,
		TokenInfoURL: tokenInfo,
		UserinfoURL:  userinfo,
		RevokeURL:    revoke,
	})
}

func TestExchange(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.FormValue("code"); got != "auth-code" {
			t.Errorf("unexpected code: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "granted-token",
			"token_type":   "Bearer",
		})
	}))
	defer provider.Close()

	c := newTestConnector("", "", "", provider.URL)

	token, err := c.Exchange(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("Exchange returned error: %v", err)
	}
	if token.AccessToken != "granted-token" {
		t.Errorf("unexpected access token: %s", token.AccessToken)
	}
}

func TestExchange_Rejected(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer provider.Close()

	c := newTestConnector("", "", "", provider.URL)

	if _, err := c.Exchange(context.Background(), "bad-code"); !errors.Is(err, ErrExchangeFailed) {
		t.Errorf("expected ErrExchangeFailed, got %v", err)
	}
}

func TestVerifyToken(t *testing.T) {
	info := TokenInfo{UserID: "sub-1", Audience: "catalog-client"}
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("access_token"); got != "access-token" {
			t.Errorf("unexpected access token: %s", got)
		}
		json.NewEncoder(w).Encode(info)
	}))
	defer provider.Close()

	c := newTestConnector(provider.URL, "", "", "")

	got, err := c.VerifyToken(context.Background(), "access-token", "sub-1")
	if err != nil {
		t.Fatalf("VerifyToken returned error: %v", err)
	}
	if got.UserID != "sub-1" {
		t.Errorf("unexpected user id: %s", got.UserID)
	}
}

func TestVerifyToken_Failures(t *testing.T) {
	tests := []struct {
		name    string
		info    TokenInfo
		subject string
		wantErr error
	}{
		{
			name:    "provider error",
			info:    TokenInfo{Error: "invalid_token"},
			subject: "sub-1",
			wantErr: ErrTokenInfo,
		},
		{
			name:    "subject mismatch",
			info:    TokenInfo{UserID: "other-sub", Audience: "catalog-client"},
			subject: "sub-1",
			wantErr: ErrSubjectMismatch,
		},
		{
			name:    "audience mismatch",
			info:    TokenInfo{UserID: "sub-1", Audience: "another-app"},
			subject: "sub-1",
			wantErr: ErrAudienceMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tt.info)
			}))
			defer provider.Close()

			c := newTestConnector(provider.URL, "", "", "")

			if _, err := c.VerifyToken(context.Background(), "access-token", tt.subject); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUserinfo(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Profile{
			Name:    "Ada Lovelace",
			Email:   "ada@example.com",
			Picture: "https://example.com/ada.png",
		})
	}))
	defer provider.Close()

	c := newTestConnector("", provider.URL, "", "")

	profile, err := c.Userinfo(context.Background(), &oauth2.Token{AccessToken: "access-token"})
	if err != nil {
		t.Fatalf("Userinfo returned error: %v", err)
	}
	if profile.Email != "ada@example.com" || profile.Name != "Ada Lovelace" {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestRevoke(t *testing.T) {
	var revoked string
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		revoked = r.URL.Query().Get("token")
		w.WriteHeader(http.StatusOK)
	}))
	defer provider.Close()

	c := newTestConnector("", "", provider.URL, "")

	if err := c.Revoke(context.Background(), "access-token"); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if revoked != "access-token" {
		t.Errorf("unexpected revoked token: %s", revoked)
	}
}

func TestRevoke_Rejected(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer provider.Close()

	c := newTestConnector("", "", provider.URL, "")

	if err := c.Revoke(context.Background(), "expired-token"); !errors.Is(err, ErrRevokeFailed) {
		t.Errorf("expected ErrRevokeFailed, got %v", err)
	}
}
