package oauth

import "fmt"

// DiscordProviderName is the identifier for the Discord strategy.
const DiscordProviderName = "discord"

// Discord authenticates against discord.com.
type Discord struct{}

func (Discord) Name() string { return DiscordProviderName }

func (Discord) DefaultConfig() Config {
	return Config{
		Site:         "https://discord.com/api",
		AuthorizeURL: "/oauth2/authorize",
		TokenURL:     "/oauth2/token",
		UserURL:      "/users/@me",
		Scope:        "identify email",
	}
}

func (Discord) Normalize(_ Config, raw RawProfile) (Profile, error) {
	if err := requireKeys(DiscordProviderName, raw, "id"); err != nil {
		return nil, err
	}

	id := stringify(raw["id"])
	p := Profile{
		"uid":      id,
		"nickname": raw["username"],
		"name":     raw["global_name"],
		"email":    raw["email"],
		"locale":   raw["locale"],
	}
	if raw["email"] != nil {
		p["verified"] = raw["verified"]
	}
	if avatar := raw.String("avatar"); avatar != "" {
		p["image"] = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", id, avatar)
	}
	return p, nil
}
