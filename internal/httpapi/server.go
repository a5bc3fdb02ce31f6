package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/oauthlink/pkg/cookie"
	"github.com/dmitrymomot/oauthlink/pkg/health"
	"github.com/dmitrymomot/oauthlink/pkg/identity"
	"github.com/dmitrymomot/oauthlink/pkg/oauth"
)

// SessionStore keeps oauth.SessionParams between the authorize redirect and
// the callback. Take must return each stored value at most once.
type SessionStore interface {
	Save(w http.ResponseWriter, r *http.Request, provider string, params oauth.SessionParams) error
	Take(w http.ResponseWriter, r *http.Request, provider string) (*oauth.SessionParams, error)
}

// Deps are the collaborators of a Server.
type Deps struct {
	Providers  *oauth.Registry
	Configs    map[string]oauth.Config
	Identities *identity.Service
	Sessions   SessionStore
	Cookies    *cookie.Manager
	Metrics    *Metrics
	Checks     health.Checks
	Logger     *slog.Logger

	// Lifetime of the signed-in user cookie.
	UserTTL time.Duration
}

// Server exposes the OAuth flow and identity management over HTTP.
type Server struct {
	providers  *oauth.Registry
	configs    map[string]oauth.Config
	identities *identity.Service
	sessions   SessionStore
	users      *userSession
	metrics    *Metrics
	checks     health.Checks
	logger     *slog.Logger
}

// NewServer validates deps and builds a Server.
func NewServer(d Deps) (*Server, error) {
	switch {
	case d.Providers == nil:
		return nil, errors.New("httpapi: providers registry is required")
	case d.Identities == nil:
		return nil, errors.New("httpapi: identity service is required")
	case d.Sessions == nil:
		return nil, errors.New("httpapi: session store is required")
	case d.Cookies == nil:
		return nil, errors.New("httpapi: cookie manager is required")
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Metrics == nil {
		m, err := NewMetrics()
		if err != nil {
			return nil, err
		}
		d.Metrics = m
	}

	return &Server{
		providers:  d.Providers,
		configs:    d.Configs,
		identities: d.Identities,
		sessions:   d.Sessions,
		users:      &userSession{cookies: d.Cookies, ttl: d.UserTTL},
		metrics:    d.Metrics,
		checks:     d.Checks,
		logger:     d.Logger,
	}, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID, Recover(s.logger), s.metrics.Instrument)

	r.Get("/healthz", health.LivenessHandler())
	r.Get("/readyz", health.ReadinessHandler(s.checks, health.WithLogger(s.logger)))
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Get("/{provider}", s.handle(s.authorize))
		r.Get("/{provider}/callback", s.handle(s.callback))
		r.Post("/{provider}/callback", s.handle(s.formPostCallback))
		r.Post("/signout", s.handle(s.signOut))
	})

	r.Route("/identities", func(r chi.Router) {
		r.Get("/", s.handle(s.listIdentities))
		r.Delete("/{provider}", s.handle(s.deleteIdentity))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, &HTTPError{Code: http.StatusNotFound, ErrorCode: "not_found", Message: "not found"})
	})
	return r
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle renders errors returned by h.
func (s *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.writeError(w, r, err)
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := toHTTPError(err)
	e.RequestID = GetRequestID(r.Context())

	if e.Code >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", slog.String("error", err.Error()))
	} else {
		s.logger.DebugContext(r.Context(), "request rejected",
			slog.Int("status", e.Code),
			slog.String("error", err.Error()),
		)
	}
	writeJSON(w, e.Code, errorResponse{Error: e})
}
