package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/tabithajarvis/CatalogApp/internal/metrics"
	"github.com/tabithajarvis/CatalogApp/internal/model"
	"github.com/tabithajarvis/CatalogApp/internal/oauth"
	"github.com/tabithajarvis/CatalogApp/internal/repository"
	"github.com/tabithajarvis/CatalogApp/internal/service"
	"github.com/tabithajarvis/CatalogApp/internal/session"
	"github.com/tabithajarvis/CatalogApp/internal/view"
)

// memSessions is an in-memory session.Store.
type memSessions struct {
	data map[string]*session.Session
	next int
}

func newMemSessions() *memSessions {
	return &memSessions{data: make(map[string]*session.Session)}
}

func (m *memSessions) Get(_ context.Context, r *http.Request) (*session.Session, error) {
	if c, err := r.Cookie(session.CookieName); err == nil {
		if s, ok := m.data[c.Value]; ok {
			return s, nil
		}
	}
	m.next++
	return &session.Session{ID: fmt.Sprintf("sess-%d", m.next)}, nil
}

func (m *memSessions) Save(_ context.Context, w http.ResponseWriter, s *session.Session) error {
	m.data[s.ID] = s
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: s.ID, Path: "/"})
	return nil
}

func (m *memSessions) Destroy(_ context.Context, _ http.ResponseWriter, s *session.Session) error {
	delete(m.data, s.ID)
	return nil
}

// seed stores a session and returns the cookie that resolves to it.
func (m *memSessions) seed(s *session.Session) *http.Cookie {
	if s.ID == "" {
		m.next++
		s.ID = fmt.Sprintf("sess-%d", m.next)
	}
	m.data[s.ID] = s
	return &http.Cookie{Name: session.CookieName, Value: s.ID}
}

// login registers a session resolving to the given user and returns
// its cookie.
func (m *memSessions) login(u *model.User) *http.Cookie {
	return m.seed(&session.Session{
		Provider: "google",
		UserID:   u.ID,
		Username: u.Name,
		Email:    u.Email,
	})
}

// fakeStore is an in-memory service.Store.
type fakeStore struct {
	users      map[int64]*model.User
	categories map[int64]*model.Category
	items      map[int64]*model.Item
	nextID     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      make(map[int64]*model.User),
		categories: make(map[int64]*model.Category),
		items:      make(map[int64]*model.Item),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeStore) GetOrCreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if existing, err := f.GetUserByEmail(ctx, user.Email); err == nil {
		return existing, nil
	}
	user.ID = f.id()
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeStore) CreateCategory(_ context.Context, category *model.Category) error {
	category.ID = f.id()
	f.categories[category.ID] = category
	return nil
}

func (f *fakeStore) GetCategory(_ context.Context, id int64) (*model.Category, error) {
	if c, ok := f.categories[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, repository.ErrCategoryNotFound
}

func (f *fakeStore) ListCategories(_ context.Context) ([]*model.Category, error) {
	var out []*model.Category
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) UpdateCategoryName(_ context.Context, id int64, name string) error {
	c, ok := f.categories[id]
	if !ok {
		return repository.ErrCategoryNotFound
	}
	c.Name = name
	return nil
}

func (f *fakeStore) DeleteCategory(_ context.Context, id int64) error {
	if _, ok := f.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	for itemID, item := range f.items {
		if item.CategoryID == id {
			delete(f.items, itemID)
		}
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeStore) CreateItem(_ context.Context, item *model.Item) error {
	item.ID = f.id()
	f.items[item.ID] = item
	return nil
}

func (f *fakeStore) GetItem(_ context.Context, categoryID, itemID int64) (*model.Item, error) {
	if i, ok := f.items[itemID]; ok && i.CategoryID == categoryID {
		copied := *i
		return &copied, nil
	}
	return nil, repository.ErrItemNotFound
}

func (f *fakeStore) ListItemsByCategory(_ context.Context, categoryID int64) ([]*model.Item, error) {
	var out []*model.Item
	for _, i := range f.items {
		if i.CategoryID == categoryID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) ListRecentItems(_ context.Context, limit int) ([]*model.Item, error) {
	var out []*model.Item
	for _, i := range f.items {
		out = append(out, i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) UpdateItem(_ context.Context, item *model.Item) error {
	if _, ok := f.items[item.ID]; !ok {
		return repository.ErrItemNotFound
	}
	copied := *item
	f.items[item.ID] = &copied
	return nil
}

func (f *fakeStore) DeleteItem(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return repository.ErrItemNotFound
	}
	delete(f.items, id)
	return nil
}

// fakeProvider is a single-server stand-in for Google's OAuth
// endpoints. Tests adjust the fields to steer each handshake step.
type fakeProvider struct {
	srv *httptest.Server

	ExchangeStatus int
	IDTokenSub     string
	TokenInfo      oauth.TokenInfo
	Profile        oauth.Profile
	RevokeStatus   int
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	p := &fakeProvider{
		ExchangeStatus: http.StatusOK,
		IDTokenSub:     "sub-1",
		TokenInfo:      oauth.TokenInfo{UserID: "sub-1", Audience: "catalog-client"},
		Profile: oauth.Profile{
			Name:    "Ada Lovelace",
			Email:   "ada@example.com",
			Picture: "https://example.com/ada.png",
		},
		RevokeStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if p.ExchangeStatus != http.StatusOK {
			http.Error(w, `{"error":"invalid_grant"}`, p.ExchangeStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-token",
			"token_type":   "Bearer",
			"id_token":     fakeIDToken(p.IDTokenSub),
		})
	})
	mux.HandleFunc("/tokeninfo", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(p.TokenInfo)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(p.Profile)
	})
	mux.HandleFunc("/revoke", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(p.RevokeStatus)
	})

	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakeProvider) connector() *oauth.Connector {
	return oauth.NewConnector(oauth.Config{
		ClientID:     "catalog-client",
		ClientSecret: "secret",
		RedirectURL:  "postmessage",
		TokenURL:     p.srv.URL + "/token",
		TokenInfoURL: p.srv.URL + "/tokeninfo",
		UserinfoURL:  p.srv.URL + "/userinfo",
		RevokeURL:    p.srv.URL + "/revoke",
	})
}

// fakeIDToken builds an unsigned JWT-shaped token with the given subject.
func fakeIDToken(sub string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payload, _ := json.Marshal(map[string]string{"sub": sub})
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

// testApp wires the full router over in-memory fakes.
type testApp struct {
	router   http.Handler
	store    *fakeStore
	sessions *memSessions
	provider *fakeProvider
	metrics  *metrics.InMemory
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	store := newFakeStore()
	sessions := newMemSessions()
	provider := newFakeProvider(t)
	recorder := metrics.NewInMemory()

	v, err := view.New()
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}

	router := NewRouter(Deps{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Catalog:   service.NewCatalog(store, recorder),
		Sessions:  sessions,
		View:      v,
		Connector: provider.connector(),
		Metrics:   recorder,
	})

	return &testApp{
		router:   router,
		store:    store,
		sessions: sessions,
		provider: provider,
		metrics:  recorder,
	}
}

// do runs one request through the router and returns the recorder.
func (a *testApp) do(t *testing.T, method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// doBody runs one request with a raw string body.
func (a *testApp) doBody(t *testing.T, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) seedUser(name, email string) *model.User {
	u := &model.User{ID: a.store.id(), Name: name, Email: email}
	a.store.users[u.ID] = u
	return u
}

func (a *testApp) seedCategory(name string, owner *model.User) *model.Category {
	c := &model.Category{ID: a.store.id(), Name: name, OwnerID: owner.ID}
	a.store.categories[c.ID] = c
	return c
}

func (a *testApp) seedItem(name string, category *model.Category, owner *model.User) *model.Item {
	i := &model.Item{
		ID:         a.store.id(),
		Name:       name,
		CategoryID: category.ID,
		OwnerID:    owner.ID,
	}
	a.store.items[i.ID] = i
	return i
}
