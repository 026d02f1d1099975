package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix is the Redis key prefix for stored sessions.
	keyPrefix = "session:"

	// CookieName is the browser cookie carrying the session ID.
	CookieName = "catalog_session"
)

// Manager loads and persists sessions in Redis.
type Manager struct {
	client *redis.Client
	ttl    time.Duration
}

// NewManager creates a Manager with a Redis client.
func NewManager(ctx context.Context, redisURL string, ttl time.Duration) (*Manager, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Connection pool settings
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Manager{client: client, ttl: ttl}, nil
}

// Ping checks Redis connectivity.
func (m *Manager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (m *Manager) Close() error {
	return m.client.Close()
}

// Get resolves the request's session. An absent cookie, an expired
// entry or a corrupted payload all yield a fresh empty session.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return &Session{ID: newSessionID()}, nil
	}

	data, err := m.client.Get(ctx, keyPrefix+cookie.Value).Bytes()
	if err != nil {
		return &Session{ID: newSessionID()}, nil
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return &Session{ID: newSessionID()}, nil
	}

	s.ID = cookie.Value
	return &s, nil
}

// Save persists the session and ensures the browser holds its cookie.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := m.client.Set(ctx, keyPrefix+s.ID, data, m.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// Destroy deletes the stored session and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if err := m.client.Del(ctx, keyPrefix+s.ID).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// newSessionID returns an opaque, URL-safe session identifier.
func newSessionID() string {
	return ulid.Make().String()
}
