package oauth

import "golang.org/x/oauth2/endpoints"

// GitLabProviderName is the identifier for the GitLab strategy.
const GitLabProviderName = "gitlab"

// GitLab authenticates against gitlab.com or a self-hosted instance (override Site and the endpoints).
type GitLab struct{}

func (GitLab) Name() string { return GitLabProviderName }

func (GitLab) DefaultConfig() Config {
	return Config{
		Site:         "https://gitlab.com",
		AuthorizeURL: endpoints.GitLab.AuthURL,
		TokenURL:     endpoints.GitLab.TokenURL,
		UserURL:      "/api/v4/user",
		Scope:        "read_user",
	}
}

func (GitLab) Normalize(_ Config, raw RawProfile) (Profile, error) {
	if err := requireKeys(GitLabProviderName, raw, "id"); err != nil {
		return nil, err
	}
	p := Profile{
		"uid":      stringify(raw["id"]),
		"name":     raw["name"],
		"nickname": raw["username"],
		"image":    raw["avatar_url"],
		"email":    raw["email"],
		"urls":     links(map[string]any{"profile": raw["web_url"], "website": raw["website_url"]}),
	}
	if raw["email"] != nil {
		p["verified"] = raw["confirmed_at"] != nil
	}
	return p, nil
}
