package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
	"github.com/dmitrymomot/oauthlink/pkg/logger"
	"github.com/dmitrymomot/oauthlink/pkg/oauth"
)

// CallbackResponse is returned after a successful callback.
type CallbackResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	Provider string    `json:"provider"`
	UID      string    `json:"uid"`
	Outcome  string    `json:"outcome"`
	Created  bool      `json:"created"`
}

// Resolution outcomes.
const (
	OutcomeLinked     = "linked"
	OutcomeSignedIn   = "signed_in"
	OutcomeRegistered = "registered"
)

func (s *Server) provider(r *http.Request) (string, *oauth.Authenticator, oauth.Config, error) {
	name := chi.URLParam(r, "provider")
	a, err := s.providers.Get(name)
	if err != nil {
		return "", nil, oauth.Config{}, err
	}
	// A registered strategy without configuration is not served.
	cfg, ok := s.configs[name]
	if !ok {
		return "", nil, oauth.Config{}, fmt.Errorf("%w: %s", oauth.ErrUnknownProvider, name)
	}
	return name, a, cfg, nil
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) error {
	name, a, cfg, err := s.provider(r)
	if err != nil {
		return err
	}
	ctx := logger.WithAttrs(r.Context(), slog.String("provider", name))

	res, err := a.AuthorizeURL(ctx, cfg)
	if err != nil {
		return err
	}
	if err := s.sessions.Save(w, r, name, res.SessionParams); err != nil {
		return err
	}

	http.Redirect(w, r, res.URL, http.StatusFound)
	return nil
}

func (s *Server) callback(w http.ResponseWriter, r *http.Request) error {
	name, a, cfg, err := s.provider(r)
	if err != nil {
		return err
	}
	ctx := logger.WithAttrs(r.Context(), slog.String("provider", name))

	query := r.URL.Query()
	params := make(map[string]string, len(query))
	for k, v := range query {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	sp, err := s.sessions.Take(w, r, name)
	if err != nil {
		return err
	}
	if sp == nil {
		s.metrics.callback(name, "session_missing")
		return ErrSessionMissing
	}
	cfg.SessionParams = sp

	res, err := a.Callback(ctx, cfg, params)
	if err != nil {
		s.metrics.callback(name, "error")
		s.logger.WarnContext(ctx, "oauth callback failed", slog.String("error", err.Error()))
		return err
	}
	s.metrics.callback(name, "ok")

	current, err := s.users.current(w, r, s.identities)
	if err != nil {
		return err
	}

	resolution, err := s.identities.Resolve(ctx, current,
		identity.IdentityParams{Provider: name, UID: res.User.UID()},
		identity.UserParams{Email: res.User.String("email"), Name: res.User.String("name")},
	)
	if err != nil {
		return err
	}
	if err := s.users.signIn(w, resolution.User); err != nil {
		return err
	}

	outcome := OutcomeSignedIn
	switch {
	case resolution.Created:
		outcome = OutcomeRegistered
	case current != nil:
		outcome = OutcomeLinked
	}
	s.metrics.resolution(name, outcome)
	s.logger.InfoContext(ctx, "oauth callback resolved",
		slog.String("user_id", resolution.User.ID.String()),
		slog.String("outcome", outcome),
	)

	writeJSON(w, http.StatusOK, CallbackResponse{
		UserID:   resolution.User.ID,
		Provider: name,
		UID:      resolution.Identity.UID,
		Outcome:  outcome,
		Created:  resolution.Created,
	})
	return nil
}

// formPostCallback answers a response_mode=form_post callback with a redirect
// to the GET callback. Browsers withhold SameSite=Lax cookies from the
// provider's cross-site POST but send them on the top-level GET that follows.
func (s *Server) formPostCallback(w http.ResponseWriter, r *http.Request) error {
	if _, _, _, err := s.provider(r); err != nil {
		return err
	}
	if err := r.ParseForm(); err != nil {
		return &HTTPError{Err: err, Code: http.StatusBadRequest, ErrorCode: "bad_request", Message: "malformed callback"}
	}

	u := url.URL{Path: r.URL.Path, RawQuery: r.Form.Encode()}
	http.Redirect(w, r, u.RequestURI(), http.StatusSeeOther)
	return nil
}

func (s *Server) signOut(w http.ResponseWriter, _ *http.Request) error {
	s.users.clear(w)
	w.WriteHeader(http.StatusNoContent)
	return nil
}
