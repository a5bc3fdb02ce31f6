package cookie

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/oauthlink/pkg/oauth"
)

const sessionCookiePrefix = "oauth_"

// SessionStore keeps oauth.SessionParams in an encrypted cookie per provider
// between the authorize redirect and the callback.
type SessionStore struct {
	m   *Manager
	ttl time.Duration
}

// NewSessionStore creates a store on m, which must have a secret.
func NewSessionStore(m *Manager, ttl time.Duration) (*SessionStore, error) {
	if m.aead == nil {
		return nil, ErrNoSecret
	}
	return &SessionStore{m: m, ttl: ttl}, nil
}

// Save stores params for provider.
func (s *SessionStore) Save(w http.ResponseWriter, _ *http.Request, provider string, params oauth.SessionParams) error {
	return s.m.SetJSON(w, sessionCookiePrefix+provider, params, int(s.ttl.Seconds()))
}

// Take returns the stored params for provider and expires the cookie, so a
// state is accepted at most once. It returns (nil, nil) when nothing is stored
// or the cookie cannot be decrypted.
func (s *SessionStore) Take(w http.ResponseWriter, r *http.Request, provider string) (*oauth.SessionParams, error) {
	name := sessionCookiePrefix + provider
	var params oauth.SessionParams
	err := s.m.GetJSON(r, name, &params)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, nil
	case errors.Is(err, ErrDecrypt):
		s.m.Delete(w, name)
		return nil, nil
	case err != nil:
		return nil, err
	}
	s.m.Delete(w, name)
	return &params, nil
}
