package oauth_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/oauthlink/pkg/oauth"
)

func TestGoogle_Callback(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mux := http.NewServeMux()
		mux.HandleFunc("POST /token", tokenHandler(map[string]any{"id_token": "ignored"}))
		mux.HandleFunc("GET /oauth2/v3/userinfo", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, map[string]any{
				"sub":            "10769150350006150715113082367",
				"name":           "Jane Doe",
				"given_name":     "Jane",
				"family_name":    "Doe",
				"picture":        "https://lh3.googleusercontent.com/a/photo.jpg",
				"email":          "jane@example.com",
				"email_verified": true,
				"hd":             "example.com",
			})
		})
		client, _ := newTestClient(mux)
		a := oauth.NewAuthenticator(oauth.Google{}, oauth.WithHTTPClient(client))

		res, err := runFlow(t, a, oauth.Config{ClientID: "test-id", ClientSecret: "test-secret"})
		require.NoError(t, err)
		assert.Equal(t, oauth.Profile{
			"uid":        "10769150350006150715113082367",
			"name":       "Jane Doe",
			"first_name": "Jane",
			"last_name":  "Doe",
			"image":      "https://lh3.googleusercontent.com/a/photo.jpg",
			"email":      "jane@example.com",
			"verified":   true,
			"google_hd":  "example.com",
		}, res.User)
	})

	t.Run("userinfo unauthorized", func(t *testing.T) {
		t.Parallel()
		mux := http.NewServeMux()
		mux.HandleFunc("POST /token", tokenHandler(nil))
		mux.HandleFunc("GET /oauth2/v3/userinfo", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid_token"})
		})
		client, _ := newTestClient(mux)
		a := oauth.NewAuthenticator(oauth.Google{}, oauth.WithHTTPClient(client))

		_, err := runFlow(t, a, oauth.Config{ClientID: "test-id"})
		require.ErrorIs(t, err, oauth.ErrInvalidServerResponse)
	})

	t.Run("missing sub", func(t *testing.T) {
		t.Parallel()
		mux := http.NewServeMux()
		mux.HandleFunc("POST /token", tokenHandler(nil))
		mux.HandleFunc("GET /oauth2/v3/userinfo", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"email": "jane@example.com"})
		})
		client, _ := newTestClient(mux)
		a := oauth.NewAuthenticator(oauth.Google{}, oauth.WithHTTPClient(client))

		_, err := runFlow(t, a, oauth.Config{ClientID: "test-id"})
		require.ErrorIs(t, err, oauth.ErrUnexpectedResponse)
	})
}

func TestGoogle_AuthorizeURL(t *testing.T) {
	t.Parallel()

	a := oauth.NewAuthenticator(oauth.Google{})
	res, err := a.AuthorizeURL(t.Context(), oauth.Config{
		ClientID:            "test-id",
		RedirectURI:         "https://app.example.com/cb",
		AuthorizationParams: map[string]string{"access_type": "offline"},
	})
	require.NoError(t, err)

	u, err := url.Parse(res.URL)
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "email profile", u.Query().Get("scope"))
	assert.Equal(t, "offline", u.Query().Get("access_type"))
}
