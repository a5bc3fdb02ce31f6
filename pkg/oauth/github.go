package oauth

import (
	"context"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// GitHubProviderName is the identifier for the GitHub strategy.
const GitHubProviderName = "github"

// GitHub authenticates against github.com. The user's email is resolved from
// /user/emails since /user only exposes the public address.
type GitHub struct{}

func (GitHub) Name() string { return GitHubProviderName }

func (GitHub) DefaultConfig() Config {
	return Config{
		Site:         "https://api.github.com",
		AuthorizeURL: endpoints.GitHub.AuthURL,
		TokenURL:     endpoints.GitHub.TokenURL,
		UserURL:      "/user",
		Scope:        "read:user,user:email",
	}
}

// FetchUser loads /user and attaches the /user/emails list under "emails".
func (GitHub) FetchUser(ctx context.Context, flow *Flow, cfg Config, token *oauth2.Token) (RawProfile, error) {
	user, err := flow.FetchUser(ctx, cfg, token)
	if err != nil {
		return nil, err
	}

	resp, err := flow.Get(ctx, cfg, token, "/user/emails", nil)
	if err != nil {
		return nil, err
	}
	emails, ok := resp.Body.([]any)
	if !ok {
		return nil, unexpectedResponse("github emails is not a list", resp)
	}

	out := make(RawProfile, len(user)+1)
	for k, v := range user {
		out[k] = v
	}
	out["emails"] = emails
	return out, nil
}

func (GitHub) Normalize(_ Config, raw RawProfile) (Profile, error) {
	if err := requireKeys(GitHubProviderName, raw, "id"); err != nil {
		return nil, err
	}

	p := Profile{
		"uid":      stringify(raw["id"]),
		"name":     raw["name"],
		"nickname": raw["login"],
		"image":    raw["avatar_url"],
		"urls":     links(map[string]any{"profile": raw["html_url"], "website": raw["blog"]}),
	}

	if email, verified, ok := githubEmail(raw); ok {
		p["email"] = email
		p["verified"] = verified
	}
	return p, nil
}

// githubEmail prefers the primary verified address, then any verified one,
// then the unverified primary.
func githubEmail(raw RawProfile) (string, bool, bool) {
	emails, _ := raw["emails"].([]any)

	var primary, verified string
	for _, e := range emails {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		addr, _ := m["email"].(string)
		isPrimary, _ := m["primary"].(bool)
		isVerified, _ := m["verified"].(bool)
		switch {
		case isPrimary && isVerified:
			return addr, true, true
		case isVerified && verified == "":
			verified = addr
		case isPrimary && primary == "":
			primary = addr
		}
	}

	if verified != "" {
		return verified, true, true
	}
	if primary != "" {
		return primary, false, true
	}
	if addr := raw.String("email"); addr != "" {
		return addr, false, true
	}
	return "", false, false
}
