package oauth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// FacebookProviderName is the identifier for the Facebook strategy.
const FacebookProviderName = "facebook"

const facebookFields = "name,email,first_name,last_name,middle_name,link,picture"

// Facebook authenticates against the Graph API. Profile requests carry an
// appsecret_proof so tokens leaked from clients cannot be replayed.
type Facebook struct{}

func (Facebook) Name() string { return FacebookProviderName }

func (Facebook) DefaultConfig() Config {
	return Config{
		Site:         "https://graph.facebook.com/v19.0",
		AuthorizeURL: endpoints.Facebook.AuthURL,
		TokenURL:     "/oauth/access_token",
		UserURL:      "/me",
		Scope:        "email",
		TokenInQuery: true,
	}
}

func (Facebook) FetchUser(ctx context.Context, flow *Flow, cfg Config, token *oauth2.Token) (RawProfile, error) {
	mac := hmac.New(sha256.New, []byte(cfg.ClientSecret))
	mac.Write([]byte(token.AccessToken))

	resp, err := flow.Get(ctx, cfg, token, cfg.UserURL, url.Values{
		"fields":          {facebookFields},
		"appsecret_proof": {hex.EncodeToString(mac.Sum(nil))},
	})
	if err != nil {
		return nil, err
	}
	body, ok := resp.Object()
	if !ok {
		return nil, unexpectedResponse("facebook user is not an object", resp)
	}
	return RawProfile(body), nil
}

func (Facebook) Normalize(_ Config, raw RawProfile) (Profile, error) {
	if err := requireKeys(FacebookProviderName, raw, "id"); err != nil {
		return nil, err
	}

	p := Profile{
		"uid":         stringify(raw["id"]),
		"name":        raw["name"],
		"email":       raw["email"],
		"first_name":  raw["first_name"],
		"middle_name": raw["middle_name"],
		"last_name":   raw["last_name"],
		"urls":        links(map[string]any{"profile": raw["link"]}),
	}
	if pic := raw.Map("picture").Map("data"); pic != nil {
		p["image"] = pic["url"]
	}
	return p, nil
}
