package oauth

import (
	"maps"
	"net/url"
	"strings"
)

// AuthMethod controls how client credentials are sent to the token endpoint.
type AuthMethod string

const (
	// AuthMethodPost sends client_id and client_secret in the form body.
	AuthMethodPost AuthMethod = "client_secret_post"
	// AuthMethodBasic sends credentials via HTTP basic auth.
	AuthMethodBasic AuthMethod = "client_secret_basic"
)

// Config holds a strategy's endpoints and client credentials.
// Env tags are relative; callers typically parse them with a per-provider
// prefix such as GITHUB_OAUTH_.
type Config struct {
	// Extra authorization URL parameters, e.g. access_type=offline.
	AuthorizationParams map[string]string `yaml:"authorization_params"`

	// Extra token request form values, e.g. type=web_server.
	TokenParams map[string]string `yaml:"token_params"`

	// Round-tripped session values; set by the caller before Callback.
	SessionParams *SessionParams `yaml:"-"`

	ClientID     string     `env:"CLIENT_ID" yaml:"client_id"`
	ClientSecret string     `env:"CLIENT_SECRET" yaml:"client_secret"`
	Site         string     `env:"SITE" yaml:"site"`
	AuthorizeURL string     `env:"AUTHORIZE_URL" yaml:"authorize_url"`
	TokenURL     string     `env:"TOKEN_URL" yaml:"token_url"`
	UserURL      string     `env:"USER_URL" yaml:"user_url"`
	RedirectURI  string     `env:"REDIRECT_URI" yaml:"redirect_uri"`
	Scope        string     `env:"SCOPE" yaml:"scope"`
	AuthMethod   AuthMethod `env:"AUTH_METHOD" yaml:"auth_method"`

	// Send the access token as an access_token query parameter instead of a
	// bearer header when fetching the user. Some legacy APIs require it.
	TokenInQuery bool `env:"TOKEN_IN_QUERY" yaml:"token_in_query"`
}

// SessionParams must be stored by the caller between AuthorizeURL and Callback.
type SessionParams struct {
	State string `json:"state"`
	Nonce string `json:"nonce,omitempty"`
}

// Merge returns defaults overlaid with every non-zero field of override.
// Maps are merged key-wise with override winning.
func Merge(defaults, override Config) Config {
	out := defaults
	setIf(&out.ClientID, override.ClientID)
	setIf(&out.ClientSecret, override.ClientSecret)
	setIf(&out.Site, override.Site)
	setIf(&out.AuthorizeURL, override.AuthorizeURL)
	setIf(&out.TokenURL, override.TokenURL)
	setIf(&out.UserURL, override.UserURL)
	setIf(&out.RedirectURI, override.RedirectURI)
	setIf(&out.Scope, override.Scope)
	if override.AuthMethod != "" {
		out.AuthMethod = override.AuthMethod
	}
	if override.TokenInQuery {
		out.TokenInQuery = true
	}
	if override.SessionParams != nil {
		out.SessionParams = override.SessionParams
	}

	out.AuthorizationParams = mergeParams(defaults.AuthorizationParams, override.AuthorizationParams)
	out.TokenParams = mergeParams(defaults.TokenParams, override.TokenParams)

	return out
}

func mergeParams(defaults, override map[string]string) map[string]string {
	if len(defaults) == 0 && len(override) == 0 {
		return nil
	}
	params := make(map[string]string, len(defaults)+len(override))
	maps.Copy(params, defaults)
	maps.Copy(params, override)
	return params
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// validate checks the keys every flow needs before touching the network.
func (c Config) validate() error {
	if c.ClientID == "" {
		return &ConfigurationError{Field: "client_id"}
	}
	if c.Site == "" && !isAbsolute(c.AuthorizeURL) {
		return &ConfigurationError{Field: "site"}
	}
	if c.Site != "" {
		if _, err := url.Parse(c.Site); err != nil {
			return &ConfigurationError{Field: "site", Message: err.Error()}
		}
	}
	return nil
}

// Endpoint resolves a possibly relative endpoint path against Site.
func (c Config) Endpoint(path string) string {
	if path == "" || isAbsolute(path) || c.Site == "" {
		return path
	}
	return strings.TrimRight(c.Site, "/") + "/" + strings.TrimLeft(path, "/")
}

// Scopes splits Scope on spaces and commas.
func (c Config) Scopes() []string {
	return strings.FieldsFunc(c.Scope, func(r rune) bool { return r == ' ' || r == ',' })
}

func isAbsolute(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
