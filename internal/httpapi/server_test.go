package httpapi_test

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_SignInFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.provider.setUser(map[string]any{"id": 42, "email": "Jane@Example.com", "name": "Jane"})
	browser := env.newBrowser(t)

	resp, body := env.signIn(t, browser, "acme")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "registered", body["outcome"])
	assert.Equal(t, true, body["created"])
	assert.Equal(t, "42", body["uid"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	// A second sign-in finds the existing user.
	other := env.newBrowser(t)
	resp, again := env.signIn(t, other, "acme")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "signed_in", again["outcome"])
	assert.Equal(t, body["user_id"], again["user_id"])

	resp = env.do(t, browser, http.MethodGet, "/identities")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode(t, resp)
	assert.Equal(t, body["user_id"], list["user_id"])
	require.Len(t, list["identities"], 1)

	// The only identity of a user without a password is kept.
	resp = env.do(t, browser, http.MethodDelete, "/identities/acme")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "no_password", errorCode(t, decode(t, resp)))
}

func TestServer_LinkAndUnlink(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	browser := env.newBrowser(t)

	env.provider.setUser(map[string]any{"id": "a-1", "email": "sam@example.com"})
	resp, first := env.signIn(t, browser, "acme")
	require.Equal(t, http.StatusOK, resp.StatusCode, first)

	env.provider.setUser(map[string]any{"id": "eu-7", "email": "sam@example.eu"})
	resp, linked := env.signIn(t, browser, "acme-eu")
	require.Equal(t, http.StatusOK, resp.StatusCode, linked)
	assert.Equal(t, "linked", linked["outcome"])
	assert.Equal(t, first["user_id"], linked["user_id"])

	resp = env.do(t, browser, http.MethodDelete, "/identities/acme")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), decode(t, resp)["deleted"])

	resp = env.do(t, browser, http.MethodDelete, "/identities/acme")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), decode(t, resp)["deleted"])
}

func TestServer_BoundToDifferentUser(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	env.provider.setUser(map[string]any{"id": "shared", "email": "owner@example.com"})
	owner := env.newBrowser(t)
	resp, _ := env.signIn(t, owner, "acme")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env.provider.setUser(map[string]any{"id": "mine", "email": "intruder@example.com"})
	intruder := env.newBrowser(t)
	resp, _ = env.signIn(t, intruder, "acme-eu")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env.provider.setUser(map[string]any{"id": "shared", "email": "owner@example.com"})
	resp, body := env.signIn(t, intruder, "acme")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "bound_to_different_user", errorCode(t, body))
}

func TestServer_CallbackRejections(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.provider.setUser(map[string]any{"id": "1", "email": "x@example.com"})

	t.Run("state mismatch", func(t *testing.T) {
		t.Parallel()
		browser := env.newBrowser(t)
		env.authorize(t, browser, "acme")

		resp := env.do(t, browser, http.MethodGet, "/auth/acme/callback?code=abc&state=forged")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "csrf", errorCode(t, decode(t, resp)))
	})

	t.Run("state is single use", func(t *testing.T) {
		t.Parallel()
		browser := env.newBrowser(t)
		state := env.authorize(t, browser, "acme")

		resp := env.do(t, browser, http.MethodGet, "/auth/acme/callback?code=abc&state="+state)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = env.do(t, browser, http.MethodGet, "/auth/acme/callback?code=abc&state="+state)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "session_missing", errorCode(t, decode(t, resp)))
	})

	t.Run("provider error", func(t *testing.T) {
		t.Parallel()
		browser := env.newBrowser(t)
		state := env.authorize(t, browser, "acme")

		resp := env.do(t, browser, http.MethodGet, "/auth/acme/callback?error=access_denied&state="+state)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "callback_error", errorCode(t, decode(t, resp)))
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()
		resp := env.do(t, env.newBrowser(t), http.MethodGet, "/auth/myspace")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "unknown_provider", errorCode(t, decode(t, resp)))
	})

	t.Run("registered provider without config", func(t *testing.T) {
		t.Parallel()
		resp := env.do(t, env.newBrowser(t), http.MethodGet, "/auth/acme-off")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "unknown_provider", errorCode(t, decode(t, resp)))
	})

	t.Run("misconfigured provider", func(t *testing.T) {
		t.Parallel()
		resp := env.do(t, env.newBrowser(t), http.MethodGet, "/auth/acme-broken")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "provider_misconfigured", errorCode(t, decode(t, resp)))
	})
}

func TestServer_FormPostCallback(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	browser := env.newBrowser(t)

	env.provider.setUser(map[string]any{"id": "a-1", "email": "kim@example.com"})
	resp, first := env.signIn(t, browser, "acme")
	require.Equal(t, http.StatusOK, resp.StatusCode, first)

	env.provider.setUser(map[string]any{"id": "eu-1", "email": "kim@example.eu"})
	state := env.authorize(t, browser, "acme-eu")

	form := url.Values{"code": {"abc"}, "state": {state}}
	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost,
		env.srv.URL+"/auth/acme-eu/callback", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = browser.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth/acme-eu/callback", loc.Path)
	assert.Equal(t, state, loc.Query().Get("state"))

	// Following the redirect is a same-site GET carrying the session cookies.
	resp = env.do(t, browser, http.MethodGet, loc.RequestURI())
	body := decode(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "linked", body["outcome"])
	assert.Equal(t, first["user_id"], body["user_id"])
}

func TestServer_MissingEmail(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.provider.setUser(map[string]any{"id": "no-mail"})

	resp, body := env.signIn(t, env.newBrowser(t), "acme")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "invalid_user", errorCode(t, body))
}

func TestServer_RequiresSignIn(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	resp := env.do(t, env.newBrowser(t), http.MethodGet, "/identities")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", errorCode(t, decode(t, resp)))
}

func TestServer_SignOut(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.provider.setUser(map[string]any{"id": "1", "email": "x@example.com"})
	browser := env.newBrowser(t)

	resp, _ := env.signIn(t, browser, "acme")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, browser, http.MethodPost, "/auth/signout")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, browser, http.MethodGet, "/identities")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_Operational(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	c := env.newBrowser(t)

	resp := env.do(t, c, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, c, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, c, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "http_requests_total")

	resp = env.do(t, c, http.MethodGet, "/nowhere")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
