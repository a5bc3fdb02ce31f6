package oauth

import "golang.org/x/oauth2/endpoints"

// GoogleProviderName is the identifier for the Google strategy.
const GoogleProviderName = "google"

// Google authenticates against Google accounts using the OpenID userinfo endpoint.
type Google struct{}

func (Google) Name() string { return GoogleProviderName }

func (Google) DefaultConfig() Config {
	return Config{
		Site:         "https://www.googleapis.com",
		AuthorizeURL: endpoints.Google.AuthURL,
		TokenURL:     endpoints.Google.TokenURL,
		UserURL:      "/oauth2/v3/userinfo",
		Scope:        "email profile",
	}
}

func (Google) Normalize(_ Config, raw RawProfile) (Profile, error) {
	if err := requireKeys(GoogleProviderName, raw, "sub"); err != nil {
		return nil, err
	}
	return Profile{
		"uid":        stringify(raw["sub"]),
		"name":       raw["name"],
		"first_name": raw["given_name"],
		"last_name":  raw["family_name"],
		"image":      raw["picture"],
		"email":      raw["email"],
		"verified":   raw["email_verified"],
		"locale":     raw["locale"],
		"google_hd":  raw["hd"],
	}, nil
}
