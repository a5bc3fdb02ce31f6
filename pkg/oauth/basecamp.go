package oauth

import (
	"context"
	"strings"

	"golang.org/x/oauth2"
)

// BasecampProviderName is the identifier for the Basecamp strategy.
const BasecampProviderName = "basecamp"

// Basecamp authenticates with 37signals Launchpad. The authorization
// document lists the identity plus every account it can access; only
// Basecamp 3+ accounts ("bc3") are kept.
type Basecamp struct{}

func (Basecamp) Name() string { return BasecampProviderName }

func (Basecamp) DefaultConfig() Config {
	return Config{
		Site:                "https://launchpad.37signals.com",
		AuthorizeURL:        "/authorization/new",
		TokenURL:            "/authorization/token",
		UserURL:             "/authorization.json",
		AuthorizationParams: map[string]string{"type": "web_server"},
		TokenParams:         map[string]string{"type": "web_server"},
	}
}

func (Basecamp) FetchUser(ctx context.Context, flow *Flow, cfg Config, token *oauth2.Token) (RawProfile, error) {
	raw, err := flow.FetchUser(ctx, cfg, token)
	if err != nil {
		return nil, err
	}
	if raw.Map("identity") == nil {
		return nil, unexpectedResponse("basecamp authorization is missing identity", nil)
	}

	accounts, _ := raw["accounts"].([]any)
	kept := make([]any, 0, len(accounts))
	for _, a := range accounts {
		m, ok := a.(map[string]any)
		if !ok {
			continue
		}
		if product, _ := m["product"].(string); product == "bc3" {
			kept = append(kept, m)
		}
	}

	out := RawProfile{"identity": raw["identity"], "accounts": kept}
	if exp, ok := raw["expires_at"]; ok {
		out["expires_at"] = exp
	}
	return out, nil
}

func (Basecamp) Normalize(_ Config, raw RawProfile) (Profile, error) {
	identity := raw.Map("identity")
	if identity == nil {
		return nil, unexpectedResponse("basecamp user is missing identity", nil)
	}
	if err := requireKeys(BasecampProviderName, identity, "id"); err != nil {
		return nil, err
	}

	first, last := identity.String("first_name"), identity.String("last_name")
	p := Profile{
		"uid":               stringify(identity["id"]),
		"first_name":        identity["first_name"],
		"last_name":         identity["last_name"],
		"email":             identity["email_address"],
		"basecamp_accounts": raw["accounts"],
	}
	if name := strings.TrimSpace(first + " " + last); name != "" {
		p["name"] = name
	}
	return p, nil
}
