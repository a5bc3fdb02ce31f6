package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
)

// Strategy describes a provider: its default endpoints and how its user
// payload maps onto the canonical Profile.
type Strategy interface {
	// Name returns the provider identifier (e.g., "google", "github").
	Name() string

	// DefaultConfig returns fixed endpoints and default scopes.
	// Caller configuration is merged on top of it.
	DefaultConfig() Config

	// Normalize maps the raw provider payload to a canonical profile.
	// The result is pruned by the caller.
	Normalize(cfg Config, raw RawProfile) (Profile, error)
}

// UserFetcher is implemented by strategies whose profile lookup is more than
// a single bearer GET on the user URL (e.g., extra email or account requests).
type UserFetcher interface {
	FetchUser(ctx context.Context, flow *Flow, cfg Config, token *oauth2.Token) (RawProfile, error)
}

// Authorizer is implemented by strategies that need to add to the
// authorization request and its session params (e.g., an OIDC nonce).
type Authorizer interface {
	AuthorizeURL(ctx context.Context, flow *Flow, cfg Config) (*AuthorizeResult, error)
}

// ConfigResolver is implemented by strategies that derive endpoints at
// runtime, such as OpenID Connect discovery.
type ConfigResolver interface {
	ResolveConfig(ctx context.Context, flow *Flow, cfg Config) (Config, error)
}

// Authenticator runs the authorization code flow for one strategy.
type Authenticator struct {
	strategy Strategy
	flow     *Flow
	logger   *slog.Logger
}

// NewAuthenticator binds a strategy to a flow.
func NewAuthenticator(s Strategy, opts ...Option) *Authenticator {
	o := newOptions(opts...)
	return &Authenticator{
		strategy: s,
		flow:     &Flow{client: o.httpClient, logger: o.logger},
		logger:   o.logger.With(slog.String("provider", s.Name())),
	}
}

// Name returns the strategy's provider name.
func (a *Authenticator) Name() string {
	return a.strategy.Name()
}

// Config returns the strategy defaults merged with cfg.
func (a *Authenticator) Config(cfg Config) Config {
	return Merge(a.strategy.DefaultConfig(), cfg)
}

func (a *Authenticator) resolve(ctx context.Context, cfg Config) (Config, error) {
	cfg = a.Config(cfg)
	if r, ok := a.strategy.(ConfigResolver); ok {
		return r.ResolveConfig(ctx, a.flow, cfg)
	}
	return cfg, nil
}

// AuthorizeURL returns the URL to redirect the user to and the session
// params to keep until the callback.
func (a *Authenticator) AuthorizeURL(ctx context.Context, cfg Config) (*AuthorizeResult, error) {
	cfg, err := a.resolve(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if az, ok := a.strategy.(Authorizer); ok {
		return az.AuthorizeURL(ctx, a.flow, cfg)
	}
	return a.flow.AuthorizeURL(ctx, cfg)
}

// Callback completes the flow: validates params, exchanges the code, fetches
// and normalizes the user. The returned profile never contains nil values.
func (a *Authenticator) Callback(ctx context.Context, cfg Config, params map[string]string) (*CallbackResult, error) {
	// State is checked before any discovery request a resolver might make.
	if err := a.flow.checkParams(ctx, a.Config(cfg), params); err != nil {
		return nil, err
	}
	cfg, err := a.resolve(ctx, cfg)
	if err != nil {
		return nil, err
	}

	token, err := a.flow.Exchange(ctx, cfg, params)
	if err != nil {
		a.logger.DebugContext(ctx, "oauth exchange failed", slog.String("error", err.Error()))
		return nil, err
	}

	var raw RawProfile
	if uf, ok := a.strategy.(UserFetcher); ok {
		raw, err = uf.FetchUser(ctx, a.flow, cfg, token)
	} else {
		raw, err = a.flow.FetchUser(ctx, cfg, token)
	}
	if err != nil {
		a.logger.DebugContext(ctx, "oauth user fetch failed", slog.String("error", err.Error()))
		return nil, err
	}

	user, err := a.strategy.Normalize(cfg, raw)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			return nil, err
		}
		return nil, errors.Join(unexpectedResponse("normalize "+a.strategy.Name()+" user", nil), err)
	}
	user = Profile(Prune(user))
	if user.UID() == "" {
		return nil, errors.Join(unexpectedResponse("normalize "+a.strategy.Name()+" user", nil), ErrMissingUID)
	}

	a.logger.DebugContext(ctx, "oauth callback completed", slog.String("uid", user.UID()))
	return &CallbackResult{Token: token, User: user}, nil
}

// requireKeys fails with an unexpected-response error if raw lacks any key.
func requireKeys(provider string, raw RawProfile, keys ...string) error {
	for _, k := range keys {
		if _, ok := raw[k]; !ok {
			return unexpectedResponse(fmt.Sprintf("%s user is missing %q", provider, k), nil)
		}
	}
	return nil
}
