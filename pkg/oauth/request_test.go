package oauth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/oauthlink/pkg/oauth"
)

func TestDecodeResponse(t *testing.T) {
	t.Parallel()

	decode := func(contentType, body string) (*oauth.Response, error) {
		return oauth.DecodeResponse(&oauth.Response{
			Status:  http.StatusOK,
			Headers: http.Header{"Content-Type": {contentType}},
			Body:    body,
		})
	}

	t.Run("json with charset", func(t *testing.T) {
		t.Parallel()
		resp, err := decode("application/json; charset=utf-8", `{"id":1,"name":"Jane"}`)
		require.NoError(t, err)
		body, ok := resp.Object()
		require.True(t, ok)
		assert.Equal(t, "Jane", body["name"])
		assert.Equal(t, json.Number("1"), body["id"])
	})

	t.Run("large ids stay exact", func(t *testing.T) {
		t.Parallel()
		resp, err := decode("application/json", `{"id":9007199254740993}`)
		require.NoError(t, err)
		body, ok := resp.Object()
		require.True(t, ok)
		assert.Equal(t, json.Number("9007199254740993"), body["id"])
	})

	t.Run("vendor json", func(t *testing.T) {
		t.Parallel()
		resp, err := decode("application/vnd.api+json", `[1,2]`)
		require.NoError(t, err)
		assert.Equal(t, []any{json.Number("1"), json.Number("2")}, resp.Body)
	})

	t.Run("form encoded", func(t *testing.T) {
		t.Parallel()
		resp, err := decode("application/x-www-form-urlencoded", "access_token=abc&scope=a&scope=b")
		require.NoError(t, err)
		body, ok := resp.Object()
		require.True(t, ok)
		assert.Equal(t, "abc", body["access_token"])
		assert.Equal(t, []string{"a", "b"}, body["scope"])
	})

	t.Run("other content passes through", func(t *testing.T) {
		t.Parallel()
		resp, err := decode("text/plain", "hello")
		require.NoError(t, err)
		assert.Equal(t, "hello", resp.Body)
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()
		_, err := decode("application/json", "not-json")
		require.ErrorIs(t, err, oauth.ErrDecodeFailed)

		var decErr *oauth.DecodeError
		require.ErrorAs(t, err, &decErr)
		assert.Equal(t, "application/json", decErr.ContentType)
	})
}

func TestRequest(t *testing.T) {
	t.Parallel()

	t.Run("transport failure is unreachable", func(t *testing.T) {
		t.Parallel()
		client := &http.Client{Transport: failingTransport{}}
		_, err := oauth.Request(context.Background(), client, http.MethodGet, "https://api.example.com/me?access_token=secret", nil, nil)
		require.ErrorIs(t, err, oauth.ErrUnreachable)
		assert.NotContains(t, err.Error(), "secret")
	})

	t.Run("non-2xx is returned, not failed", func(t *testing.T) {
		t.Parallel()
		client, _ := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "v", r.Header.Get("X-Test"))
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not_found"})
		}))

		resp, err := oauth.Request(context.Background(), client, http.MethodGet, "https://api.example.com/x", nil, http.Header{"X-Test": {"v"}})
		require.NoError(t, err)
		assert.False(t, resp.OK())
		assert.Equal(t, http.StatusNotFound, resp.Status)
	})
}

func TestRequestError_Is(t *testing.T) {
	t.Parallel()

	err := &oauth.RequestError{Kind: oauth.ErrorInvalidServerResponse, Status: 500}
	assert.True(t, errors.Is(err, oauth.ErrInvalidServerResponse))
	assert.False(t, errors.Is(err, oauth.ErrUnexpectedResponse))
	assert.Contains(t, err.Error(), "status=500")
}
