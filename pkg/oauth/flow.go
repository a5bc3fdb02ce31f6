package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// AuthorizeResult is returned by AuthorizeURL. SessionParams must be stored by
// the caller (cookie, session) and passed back through Config.SessionParams.
type AuthorizeResult struct {
	URL           string
	SessionParams SessionParams
}

// CallbackResult is the outcome of a completed authorization code flow.
type CallbackResult struct {
	Token *oauth2.Token
	User  Profile
}

// Flow implements the OAuth2 authorization code grant against any provider
// described by a Config. Strategies wrap a Flow and only supply
// provider-specific defaults and normalization.
type Flow struct {
	client HTTPClient
	logger *slog.Logger
}

// NewFlow creates a Flow. Without options it uses http.DefaultClient.
func NewFlow(opts ...Option) *Flow {
	o := newOptions(opts...)
	return &Flow{client: o.httpClient, logger: o.logger}
}

// AuthorizeURL builds the provider's authorization URL with a fresh CSRF state.
// It performs no network calls.
func (f *Flow) AuthorizeURL(_ context.Context, cfg Config) (*AuthorizeResult, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.AuthorizeURL == "" {
		return nil, &ConfigurationError{Field: "authorize_url"}
	}

	state, err := randomToken(32)
	if err != nil {
		return nil, err
	}

	opts := make([]oauth2.AuthCodeOption, 0, len(cfg.AuthorizationParams))
	for k, v := range cfg.AuthorizationParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}

	return &AuthorizeResult{
		URL:           oauth2Config(cfg).AuthCodeURL(state, opts...),
		SessionParams: SessionParams{State: state},
	}, nil
}

// Callback validates the callback params, exchanges the code for a token and
// fetches the raw user with a plain bearer GET on cfg.UserURL.
func (f *Flow) Callback(ctx context.Context, cfg Config, params map[string]string) (*oauth2.Token, RawProfile, error) {
	token, err := f.Exchange(ctx, cfg, params)
	if err != nil {
		return nil, nil, err
	}
	user, err := f.FetchUser(ctx, cfg, token)
	if err != nil {
		return nil, nil, err
	}
	return token, user, nil
}

// Exchange checks state and provider errors in params, then trades the code
// for an access token.
func (f *Flow) Exchange(ctx context.Context, cfg Config, params map[string]string) (*oauth2.Token, error) {
	if err := f.checkParams(ctx, cfg, params); err != nil {
		return nil, err
	}
	code := params["code"]
	if code == "" {
		return nil, &CallbackError{Code: "invalid_request", Description: "missing code param"}
	}
	if cfg.TokenURL == "" {
		return nil, &ConfigurationError{Field: "token_url"}
	}

	opts := make([]oauth2.AuthCodeOption, 0, len(cfg.TokenParams))
	for k, v := range cfg.TokenParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}

	client := &recordingClient{next: f.client}
	token, err := oauth2Config(cfg).Exchange(context.WithValue(ctx, oauth2.HTTPClient, stdClient(client)), code, opts...)
	if err != nil {
		return nil, tokenError(err, client.err)
	}
	return token, nil
}

// checkParams validates configuration, the CSRF state and provider errors.
// It never touches the network.
func (f *Flow) checkParams(ctx context.Context, cfg Config, params map[string]string) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	if cfg.SessionParams == nil {
		return &ConfigurationError{Field: "session_params"}
	}
	if params["state"] != cfg.SessionParams.State {
		f.logger.WarnContext(ctx, "oauth state mismatch", slog.String("site", cfg.Site))
		return &CallbackCSRFError{Key: "state"}
	}
	if code := params["error"]; code != "" {
		return &CallbackError{
			Code:        code,
			Description: params["error_description"],
			URI:         params["error_uri"],
		}
	}
	return nil
}

// FetchUser performs an authorized GET on cfg.UserURL and returns the JSON object.
func (f *Flow) FetchUser(ctx context.Context, cfg Config, token *oauth2.Token) (RawProfile, error) {
	if cfg.UserURL == "" {
		return nil, &ConfigurationError{Field: "user_url"}
	}
	resp, err := f.Get(ctx, cfg, token, cfg.UserURL, nil)
	if err != nil {
		return nil, err
	}
	body, ok := resp.Object()
	if !ok {
		return nil, unexpectedResponse("user response is not a JSON object", resp)
	}
	return RawProfile(body), nil
}

// Get performs an authorized GET against a provider endpoint. Relative paths
// are resolved against cfg.Site. Non-2xx responses are returned as errors.
func (f *Flow) Get(ctx context.Context, cfg Config, token *oauth2.Token, endpoint string, query url.Values) (*Response, error) {
	u, err := url.Parse(cfg.Endpoint(endpoint))
	if err != nil {
		return nil, &ConfigurationError{Field: "user_url", Message: err.Error()}
	}

	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	headers := http.Header{"Accept": {"application/json"}}
	if token != nil {
		if cfg.TokenInQuery {
			q.Set("access_token", token.AccessToken)
		} else {
			headers.Set("Authorization", "Bearer "+token.AccessToken)
		}
	}
	u.RawQuery = q.Encode()

	resp, err := Request(ctx, f.client, http.MethodGet, u.String(), nil, headers)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, invalidServerResponse("GET "+endpoint, resp)
	}
	return resp, nil
}

// HTTPClient exposes the flow's client for strategies that call non-OAuth
// endpoints such as OIDC discovery.
func (f *Flow) HTTPClient() HTTPClient {
	return f.client
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func oauth2Config(cfg Config) *oauth2.Config {
	style := oauth2.AuthStyleInParams
	if cfg.AuthMethod == AuthMethodBasic {
		style = oauth2.AuthStyleInHeader
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       cfg.Scopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.Endpoint(cfg.AuthorizeURL),
			TokenURL:  cfg.Endpoint(cfg.TokenURL),
			AuthStyle: style,
		},
	}
}

// recordingClient remembers the last transport failure so token errors can
// be told apart from bad responses.
type recordingClient struct {
	next HTTPClient
	err  error
}

func (c *recordingClient) Do(req *http.Request) (*http.Response, error) {
	next := c.next
	if next == nil {
		next = http.DefaultClient
	}
	resp, err := next.Do(req)
	if err != nil {
		c.err = err
	}
	return resp, err
}

// tokenError maps x/oauth2 exchange failures to RequestError kinds.
// Providers that answer errors with 200 OK (GitHub) surface as RetrieveError too.
func tokenError(err, transportErr error) error {
	if transportErr != nil {
		return &RequestError{Kind: ErrorUnreachable, Message: "POST token endpoint", Err: transportErr}
	}

	var rErr *oauth2.RetrieveError
	if !errors.As(err, &rErr) {
		return &RequestError{Kind: ErrorUnexpectedResponse, Message: "token response", Err: err}
	}

	resp := &Response{Body: string(rErr.Body)}
	if rErr.Response != nil {
		resp.Status = rErr.Response.StatusCode
		resp.Headers = rErr.Response.Header
	}
	if decoded, decErr := DecodeResponse(resp); decErr == nil {
		resp = decoded
	}

	msg := "token endpoint"
	if rErr.ErrorCode != "" {
		msg += " returned " + rErr.ErrorCode
	}
	e := invalidServerResponse(msg, resp)
	e.Err = err
	return e
}
