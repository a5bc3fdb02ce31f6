//go:build integration

package redis_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/oauthlink/pkg/cookie"
	"github.com/dmitrymomot/oauthlink/pkg/oauth"
	"github.com/dmitrymomot/oauthlink/pkg/redis"
)

func TestSessionStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	client, err := redis.Open(t.Context(), redis.Config{URL: url, RetryAttempts: 1}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	cookies, err := cookie.New(cookie.WithSecret("this-is-a-very-long-secret-key-for-testing"))
	require.NoError(t, err)

	store, err := redis.NewSessionStore(client, cookies, "test:"+uuid.NewString()+":", time.Minute)
	require.NoError(t, err)

	params := oauth.SessionParams{State: "s", Nonce: "n"}
	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(rec, httptest.NewRequest(http.MethodGet, "/", nil), "google", params))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	got, err := store.Take(httptest.NewRecorder(), req, "google")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, params, *got)

	got, err = store.Take(httptest.NewRecorder(), req, "google")
	require.NoError(t, err)
	assert.Nil(t, got, "params are consumed on first take")
}
