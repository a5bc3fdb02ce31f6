package redis

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/oauthlink/pkg/cookie"
	"github.com/dmitrymomot/oauthlink/pkg/oauth"
)

const sessionCookie = "oauth_sid"

// SessionStore keeps oauth.SessionParams in Redis. The browser only holds a
// signed random session id, so state and nonce never leave the server.
type SessionStore struct {
	client  redis.UniversalClient
	cookies *cookie.Manager
	prefix  string
	ttl     time.Duration
}

// NewSessionStore creates a store. cookies must have a secret.
func NewSessionStore(client redis.UniversalClient, cookies *cookie.Manager, prefix string, ttl time.Duration) (*SessionStore, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &SessionStore{client: client, cookies: cookies, prefix: prefix, ttl: ttl}, nil
}

// Save stores params for provider under the caller's session id, issuing a
// new id when the request carries none.
func (s *SessionStore) Save(w http.ResponseWriter, r *http.Request, provider string, params oauth.SessionParams) error {
	sid, err := s.cookies.GetSigned(r, sessionCookie)
	if err != nil {
		if sid, err = newSessionID(); err != nil {
			return err
		}
	}

	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	if err := s.client.Set(r.Context(), s.key(sid, provider), data, s.ttl).Err(); err != nil {
		return err
	}
	return s.cookies.SetSigned(w, sessionCookie, sid, int(s.ttl.Seconds()))
}

// Take atomically reads and deletes the params stored for provider. It
// returns (nil, nil) when nothing is stored.
func (s *SessionStore) Take(_ http.ResponseWriter, r *http.Request, provider string) (*oauth.SessionParams, error) {
	sid, err := s.cookies.GetSigned(r, sessionCookie)
	if err != nil {
		return nil, nil
	}

	data, err := s.client.GetDel(r.Context(), s.key(sid, provider)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var params oauth.SessionParams
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, err
	}
	return &params, nil
}

func (s *SessionStore) key(sid, provider string) string {
	return s.prefix + "session:" + sid + ":" + provider
}

func newSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
