// Package oauth implements the OAuth2 authorization code flow as a set of
// provider strategies on top of one generic Flow.
//
// A Strategy supplies provider defaults (site, endpoints, scope) and maps the
// provider's user payload to a canonical Profile. Strategies that need more
// than a single bearer GET on the user URL implement UserFetcher; the OpenID
// Connect strategy also implements Authorizer (nonce) and ConfigResolver
// (discovery).
//
// # Usage
//
//	reg := oauth.DefaultRegistry(oauth.WithLogger(logger))
//	auth, err := reg.Get("github")
//	if err != nil {
//		return err
//	}
//
//	cfg := oauth.Config{
//		ClientID:     os.Getenv("GITHUB_OAUTH_CLIENT_ID"),
//		ClientSecret: os.Getenv("GITHUB_OAUTH_CLIENT_SECRET"),
//		RedirectURI:  "https://example.com/auth/github/callback",
//	}
//
//	// Redirect step. Keep res.SessionParams until the callback.
//	res, err := auth.AuthorizeURL(ctx, cfg)
//
//	// Callback step.
//	cfg.SessionParams = &stored
//	out, err := auth.Callback(ctx, cfg, map[string]string{
//		"code":  r.URL.Query().Get("code"),
//		"state": r.URL.Query().Get("state"),
//	})
//	// out.User["uid"], out.User["email"], out.Token.AccessToken ...
//
// Normalized profiles never contain nil values; see Prune.
//
// # Error Handling
//
// Every failure is a typed error that also matches a sentinel via errors.Is:
//
//   - *ConfigurationError (ErrConfiguration): missing client_id, site or endpoint
//   - *CallbackCSRFError (ErrCSRF): state or nonce mismatch
//   - *CallbackError (ErrCallback): provider redirected back with error=...
//   - *RequestError (ErrUnreachable, ErrInvalidServerResponse, ErrUnexpectedResponse)
//   - *DecodeError (ErrDecodeFailed): body does not parse per its content type
//
// # Testing
//
// Use WithHTTPClient to route provider traffic to a local handler:
//
//	reg := oauth.DefaultRegistry(oauth.WithHTTPClient(ts.Client()))
package oauth
