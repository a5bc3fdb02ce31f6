package oauth

import (
	"cmp"
	"context"
	"errors"
	"maps"
	"net/http"
	"net/url"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/oauthlink/pkg/cache"
)

// OIDCProviderName is the identifier for the generic OpenID Connect strategy.
const OIDCProviderName = "oidc"

// DefaultDiscoveryTTL is how long a discovery document is reused.
const DefaultDiscoveryTTL = time.Hour

// OIDC is a generic OpenID Connect strategy. Config.Site is the issuer;
// endpoints come from its discovery document unless set explicitly.
type OIDC struct {
	providers *cache.Memory[*oidc.Provider] // by issuer
}

// NewOIDC creates an OIDC strategy whose discovery documents are cached for
// ttl. A zero ttl uses DefaultDiscoveryTTL.
func NewOIDC(ttl ...time.Duration) *OIDC {
	d := DefaultDiscoveryTTL
	if len(ttl) > 0 && ttl[0] > 0 {
		d = ttl[0]
	}
	return &OIDC{providers: cache.NewMemory[*oidc.Provider](cache.WithTTL(d), cache.WithMaxEntries(64))}
}

func (o *OIDC) Name() string { return OIDCProviderName }

func (o *OIDC) DefaultConfig() Config {
	return Config{Scope: "openid email profile"}
}

// ResolveConfig fills endpoints the caller left empty from the issuer's
// discovery document.
func (o *OIDC) ResolveConfig(ctx context.Context, flow *Flow, cfg Config) (Config, error) {
	if cfg.Site == "" {
		return cfg, &ConfigurationError{Field: "site", Message: "issuer is required"}
	}
	p, err := o.provider(ctx, flow, cfg.Site)
	if err != nil {
		return cfg, err
	}

	ep := p.Endpoint()
	cfg.AuthorizeURL = cmp.Or(cfg.AuthorizeURL, ep.AuthURL)
	cfg.TokenURL = cmp.Or(cfg.TokenURL, ep.TokenURL)
	cfg.UserURL = cmp.Or(cfg.UserURL, p.UserInfoEndpoint())
	return cfg, nil
}

// AuthorizeURL adds a nonce to the request and the session params.
func (o *OIDC) AuthorizeURL(ctx context.Context, flow *Flow, cfg Config) (*AuthorizeResult, error) {
	nonce, err := randomToken(32)
	if err != nil {
		return nil, err
	}
	cfg.AuthorizationParams = mergeParams(cfg.AuthorizationParams, map[string]string{"nonce": nonce})

	res, err := flow.AuthorizeURL(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res.SessionParams.Nonce = nonce
	return res, nil
}

// FetchUser verifies the ID token and merges userinfo claims into it.
func (o *OIDC) FetchUser(ctx context.Context, flow *Flow, cfg Config, token *oauth2.Token) (RawProfile, error) {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, unexpectedResponse("token response is missing id_token", nil)
	}

	p, err := o.provider(ctx, flow, cfg.Site)
	if err != nil {
		return nil, err
	}

	verifier := p.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	idToken, err := verifier.Verify(oidc.ClientContext(ctx, stdClient(flow.HTTPClient())), rawIDToken)
	if err != nil {
		return nil, &RequestError{Kind: ErrorUnexpectedResponse, Message: "verify id_token", Err: err}
	}
	if cfg.SessionParams != nil && cfg.SessionParams.Nonce != "" && idToken.Nonce != cfg.SessionParams.Nonce {
		return nil, &CallbackCSRFError{Key: "nonce"}
	}

	claims := RawProfile{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, &RequestError{Kind: ErrorUnexpectedResponse, Message: "decode id_token claims", Err: err}
	}

	if cfg.UserURL == "" {
		return claims, nil
	}
	info, err := flow.FetchUser(ctx, cfg, token)
	if err != nil {
		return nil, err
	}
	if sub := stringify(info["sub"]); sub != "" && sub != idToken.Subject {
		return nil, unexpectedResponse("userinfo subject does not match id_token", nil)
	}
	merged := maps.Clone(info)
	maps.Copy(merged, claims)
	return merged, nil
}

func (o *OIDC) Normalize(_ Config, raw RawProfile) (Profile, error) {
	if err := requireKeys(OIDCProviderName, raw, "sub"); err != nil {
		return nil, err
	}
	nickname := raw["preferred_username"]
	if nickname == nil {
		nickname = raw["nickname"]
	}
	return Profile{
		"uid":         stringify(raw["sub"]),
		"name":        raw["name"],
		"email":       raw["email"],
		"verified":    raw["email_verified"],
		"nickname":    nickname,
		"image":       raw["picture"],
		"first_name":  raw["given_name"],
		"middle_name": raw["middle_name"],
		"last_name":   raw["family_name"],
		"urls":        links(map[string]any{"profile": raw["profile"], "website": raw["website"]}),
		"locale":      raw["locale"],
		"zoneinfo":    raw["zoneinfo"],
	}, nil
}

func (o *OIDC) provider(ctx context.Context, flow *Flow, issuer string) (*oidc.Provider, error) {
	return o.providers.GetOrLoad(ctx, issuer, func(ctx context.Context) (*oidc.Provider, error) {
		// The provider keeps the context for later JWKS refreshes.
		dctx := oidc.ClientContext(context.WithoutCancel(ctx), stdClient(flow.HTTPClient()))
		p, err := oidc.NewProvider(dctx, issuer)
		if err != nil {
			var urlErr *url.Error
			if errors.As(err, &urlErr) {
				return nil, &RequestError{Kind: ErrorUnreachable, Message: "oidc discovery", Err: err}
			}
			return nil, &RequestError{Kind: ErrorInvalidServerResponse, Message: "oidc discovery", Err: err}
		}
		return p, nil
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// stdClient adapts an HTTPClient for libraries that need *http.Client.
func stdClient(c HTTPClient) *http.Client {
	if hc, ok := c.(*http.Client); ok {
		return hc
	}
	return &http.Client{Transport: roundTripperFunc(c.Do)}
}
