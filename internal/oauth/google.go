// Package oauth implements the Google OAuth connector: the
// state-nonce-guarded code exchange, access-token verification against
// the provider's tokeninfo endpoint, profile lookup and revocation.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// Connector errors. Handlers map these onto the HTTP statuses of the
// handshake: exchange and identity mismatches are 401, provider-side
// tokeninfo failures are 500, revocation rejection is 400.
var (
	ErrExchangeFailed   = errors.New("authorization code exchange failed")
	ErrNoIDToken        = errors.New("credential carries no id_token")
	ErrTokenInfo        = errors.New("token info lookup failed")
	ErrSubjectMismatch  = errors.New("token subject does not match user")
	ErrAudienceMismatch = errors.New("token audience does not match client")
	ErrRevokeFailed     = errors.New("token revocation failed")
)

const (
	stateLength   = 32
	stateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	defaultTokenInfoURL = "https://www.googleapis.com/oauth2/v1/tokeninfo"
	defaultUserinfoURL  = "https://www.googleapis.com/oauth2/v1/userinfo"
	defaultRevokeURL    = "https://accounts.google.com/o/oauth2/revoke"
)

// Config configures the Google connector. The endpoint overrides exist
// for tests; left empty, everything points at Google.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	TokenURL     string
	TokenInfoURL string
	UserinfoURL  string
	RevokeURL    string

	HTTPClient *http.Client
}

// Profile holds the identity attributes from the userinfo endpoint.
type Profile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// TokenInfo is the relevant subset of the tokeninfo response.
type TokenInfo struct {
	UserID   string `json:"user_id"`
	Audience string `json:"audience"`
	Email    string `json:"email"`
	Error    string `json:"error,omitempty"`
}

// Connector drives the Google authorization-code handshake.
type Connector struct {
	oauth        *oauth2.Config
	client       *http.Client
	tokenInfoURL string
	userinfoURL  string
	revokeURL    string
}

// NewConnector creates a Connector for the registered OAuth client.
func NewConnector(cfg Config) *Connector {
	endpoint := endpoints.Google
	if cfg.TokenURL != "" {
		endpoint = oauth2.Endpoint{TokenURL: cfg.TokenURL}
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	c := &Connector{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     endpoint,
		},
		client:       client,
		tokenInfoURL: cfg.TokenInfoURL,
		userinfoURL:  cfg.UserinfoURL,
		revokeURL:    cfg.RevokeURL,
	}

	if c.tokenInfoURL == "" {
		c.tokenInfoURL = defaultTokenInfoURL
	}
	if c.userinfoURL == "" {
		c.userinfoURL = defaultUserinfoURL
	}
	if c.revokeURL == "" {
		c.revokeURL = defaultRevokeURL
	}

	return c
}

// ClientID returns the registered OAuth client ID.
func (c *Connector) ClientID() string {
	return c.oauth.ClientID
}

// NewState generates the random alphanumeric nonce binding an OAuth
// handshake to the session that issued the login page.
func NewState() (string, error) {
	b := make([]byte, stateLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(stateAlphabet))))
		if err != nil {
			return "", fmt.Errorf("generate state: %w", err)
		}
		b[i] = stateAlphabet[n.Int64()]
	}
	return string(b), nil
}

// Exchange swaps an authorization code for a provider credential.
func (c *Connector) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	return token, nil
}

// ExternalID extracts the subject claim from the credential's id_token.
// The signature is not checked here; VerifyToken is the verification
// step for the handshake.
func ExternalID(token *oauth2.Token) (string, error) {
	raw, _ := token.Extra("id_token").(string)
	if raw == "" {
		return "", ErrNoIDToken
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return "", ErrNoIDToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode id_token payload: %w", err)
	}

	var claims struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", fmt.Errorf("parse id_token payload: %w", err)
	}
	if claims.Sub == "" {
		return "", ErrNoIDToken
	}

	return claims.Sub, nil
}

// VerifyToken checks the access token against the provider's tokeninfo
// endpoint. The reported subject must match externalID and the audience
// must match this application's client ID.
func (c *Connector) VerifyToken(ctx context.Context, accessToken, externalID string) (*TokenInfo, error) {
	u := c.tokenInfoURL + "?access_token=" + url.QueryEscape(accessToken)

	var info TokenInfo
	if err := c.getJSON(ctx, u, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInfo, err)
	}
	if info.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrTokenInfo, info.Error)
	}
	if info.UserID != externalID {
		return nil, ErrSubjectMismatch
	}
	if info.Audience != c.oauth.ClientID {
		return nil, ErrAudienceMismatch
	}

	return &info, nil
}

// Userinfo fetches the profile attributes for the credential.
func (c *Connector) Userinfo(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	u := c.userinfoURL + "?access_token=" + url.QueryEscape(token.AccessToken)

	var profile Profile
	if err := c.getJSON(ctx, u, &profile); err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}

	return &profile, nil
}

// Revoke invalidates the credential with the provider.
func (c *Connector) Revoke(ctx context.Context, accessToken string) error {
	u := c.revokeURL + "?token=" + url.QueryEscape(accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRevokeFailed, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRevokeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrRevokeFailed, resp.StatusCode)
	}

	return nil
}

// getJSON performs a single-shot GET and decodes the JSON body.
func (c *Connector) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}
