package oauth

import (
	"context"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// InstagramProviderName is the identifier for the Instagram strategy.
const InstagramProviderName = "instagram"

// Instagram uses the Basic Display API, which only accepts the token as a
// query parameter.
type Instagram struct{}

func (Instagram) Name() string { return InstagramProviderName }

func (Instagram) DefaultConfig() Config {
	return Config{
		Site:         "https://graph.instagram.com",
		AuthorizeURL: endpoints.Instagram.AuthURL,
		TokenURL:     endpoints.Instagram.TokenURL,
		UserURL:      "/me",
		Scope:        "user_profile",
		TokenInQuery: true,
	}
}

func (Instagram) FetchUser(ctx context.Context, flow *Flow, cfg Config, token *oauth2.Token) (RawProfile, error) {
	resp, err := flow.Get(ctx, cfg, token, cfg.UserURL, url.Values{"fields": {"id,username"}})
	if err != nil {
		return nil, err
	}
	body, ok := resp.Object()
	if !ok {
		return nil, unexpectedResponse("instagram user is not an object", resp)
	}
	return RawProfile(body), nil
}

func (Instagram) Normalize(_ Config, raw RawProfile) (Profile, error) {
	if err := requireKeys(InstagramProviderName, raw, "id"); err != nil {
		return nil, err
	}
	return Profile{
		"uid":      stringify(raw["id"]),
		"nickname": raw["username"],
	}, nil
}
