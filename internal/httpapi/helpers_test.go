package httpapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/oauthlink/internal/httpapi"
	"github.com/dmitrymomot/oauthlink/pkg/cookie"
	"github.com/dmitrymomot/oauthlink/pkg/identity"
	"github.com/dmitrymomot/oauthlink/pkg/oauth"
)

// acme is a provider whose profile is {"id", "email", "name"}.
type acme struct{}

func (acme) Name() string { return "acme" }

func (acme) DefaultConfig() oauth.Config {
	return oauth.Config{
		Site:         "https://acme.test",
		AuthorizeURL: "/authorize",
		TokenURL:     "/token",
		UserURL:      "/me",
	}
}

func (acme) Normalize(_ oauth.Config, raw oauth.RawProfile) (oauth.Profile, error) {
	return oauth.Profile{"uid": raw["id"], "email": raw["email"], "name": raw["name"]}, nil
}

// fakeProvider serves token and profile requests for any host.
type fakeProvider struct {
	mu   sync.Mutex
	user map[string]any
}

func (p *fakeProvider) setUser(u map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.user = u
}

func (p *fakeProvider) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	rec.Header().Set("Content-Type", "application/json")
	switch req.URL.Path {
	case "/token":
		_ = json.NewEncoder(rec).Encode(map[string]any{"access_token": "t", "token_type": "bearer"})
	case "/me":
		p.mu.Lock()
		_ = json.NewEncoder(rec).Encode(p.user)
		p.mu.Unlock()
	default:
		rec.WriteHeader(http.StatusNotFound)
	}
	return rec.Result(), nil
}

// memRepo is an in-memory identity.Repository.
type memRepo struct {
	txMu       sync.Mutex
	mu         sync.Mutex
	users      map[uuid.UUID]identity.User
	identities []identity.UserIdentity
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[uuid.UUID]identity.User{}}
}

// WithTx runs transactions one at a time, which covers LockUser.
func (m *memRepo) WithTx(_ context.Context, fn func(identity.Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

func (m *memRepo) LockUser(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return m.GetUser(ctx, id)
}

func (m *memRepo) GetUser(_ context.Context, id uuid.UUID) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return &u, nil
}

func (m *memRepo) InsertUser(_ context.Context, u *identity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email != nil && u.Email != nil && *existing.Email == *u.Email {
			return identity.ErrEmailTaken
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memRepo) GetIdentity(_ context.Context, provider, uid string) (*identity.UserIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.identities {
		if i.Provider == provider && i.UID == uid {
			return &i, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (m *memRepo) ListIdentities(_ context.Context, userID uuid.UUID) ([]identity.UserIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []identity.UserIdentity
	for _, i := range m.identities {
		if i.UserID == userID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *memRepo) UpsertIdentity(_ context.Context, in *identity.UserIdentity) (*identity.UserIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for idx, i := range m.identities {
		if i.Provider != in.Provider || i.UID != in.UID {
			continue
		}
		if i.UserID != in.UserID {
			return nil, identity.ErrBoundToDifferentUser
		}
		m.identities[idx].UpdatedAt = in.UpdatedAt
		out := m.identities[idx]
		return &out, nil
	}
	m.identities = append(m.identities, *in)
	out := *in
	return &out, nil
}

func (m *memRepo) DeleteIdentities(_ context.Context, userID uuid.UUID, provider string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	kept := m.identities[:0]
	for _, i := range m.identities {
		if i.UserID == userID && i.Provider == provider {
			n++
			continue
		}
		kept = append(kept, i)
	}
	m.identities = kept
	return n, nil
}

type testEnv struct {
	srv      *httptest.Server
	provider *fakeProvider
	repo     *memRepo
	svc      *identity.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	provider := &fakeProvider{}
	reg := oauth.NewRegistry(oauth.WithHTTPClient(&http.Client{Transport: provider}))
	reg.Register(acme{})
	reg.RegisterAs("acme-eu", acme{})
	reg.RegisterAs("acme-off", acme{})
	reg.RegisterAs("acme-broken", acme{})

	cookies, err := cookie.New(cookie.WithSecret("this-is-a-very-long-secret-key-for-testing"), cookie.WithSecure(false))
	require.NoError(t, err)
	sessions, err := cookie.NewSessionStore(cookies, 10*time.Minute)
	require.NoError(t, err)

	repo := newMemRepo()
	svc := identity.NewService(repo, identity.WithBcryptCost(bcrypt.MinCost))

	server, err := httpapi.NewServer(httpapi.Deps{
		Providers: reg,
		Configs: map[string]oauth.Config{
			"acme":    {ClientID: "client", ClientSecret: "secret"},
			"acme-eu": {ClientID: "client-eu", ClientSecret: "secret"},
			// acme-off has no entry; acme-broken lacks a client id.
			"acme-broken": {},
		},
		Identities: svc,
		Sessions:   sessions,
		Cookies:    cookies,
		UserTTL:    time.Hour,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, provider: provider, repo: repo, svc: svc}
}

// newBrowser returns a client with a cookie jar that does not follow redirects.
func (e *testEnv) newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) do(t *testing.T, c *http.Client, method, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), method, e.srv.URL+path, nil)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// authorize starts the flow and returns the state from the redirect.
func (e *testEnv) authorize(t *testing.T, c *http.Client, provider string) string {
	t.Helper()
	resp := e.do(t, c, http.MethodGet, "/auth/"+provider)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

// signIn runs a full flow for provider and returns the decoded response.
func (e *testEnv) signIn(t *testing.T, c *http.Client, provider string) (*http.Response, map[string]any) {
	t.Helper()
	state := e.authorize(t, c, provider)
	resp := e.do(t, c, http.MethodGet, fmt.Sprintf("/auth/%s/callback?code=abc&state=%s", provider, url.QueryEscape(state)))
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "error body: %v", body)
	code, _ := e["code"].(string)
	return code
}
