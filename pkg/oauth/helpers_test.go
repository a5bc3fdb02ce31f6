package oauth_test

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/oauthlink/pkg/oauth"
)

// rewriteTransport routes every outbound request to a local handler,
// whatever its host.
type rewriteTransport struct {
	handler http.Handler
	calls   atomic.Int32
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls.Add(1)
	recorder := httptest.NewRecorder()
	t.handler.ServeHTTP(recorder, req)
	return recorder.Result(), nil
}

func newTestClient(h http.Handler) (*http.Client, *rewriteTransport) {
	tr := &rewriteTransport{handler: h}
	return &http.Client{Transport: tr}, tr
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// tokenHandler answers token requests with a bearer token plus extra fields.
func tokenHandler(extra map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"access_token": "test-token", "token_type": "bearer", "expires_in": 3600}
		maps.Copy(body, extra)
		writeJSON(w, http.StatusOK, body)
	}
}

// runFlow performs the authorize step, then calls back with the issued state.
func runFlow(t *testing.T, a *oauth.Authenticator, cfg oauth.Config) (*oauth.CallbackResult, error) {
	t.Helper()
	ctx := context.Background()

	res, err := a.AuthorizeURL(ctx, cfg)
	require.NoError(t, err)

	cfg.SessionParams = &res.SessionParams
	return a.Callback(ctx, cfg, map[string]string{
		"code":  "test-code",
		"state": res.SessionParams.State,
	})
}
