package oauth

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// VKProviderName is the identifier for the VK strategy.
const VKProviderName = "vk"

const (
	vkAPIVersion = "5.199"
	vkFields     = "uid,first_name,last_name,photo_200,screen_name,verified"
)

// VK authenticates against vk.com. The email is only returned in the token
// response, and the users.get method wraps the profile in a response list.
type VK struct{}

func (VK) Name() string { return VKProviderName }

func (VK) DefaultConfig() Config {
	return Config{
		Site:         "https://api.vk.com",
		AuthorizeURL: endpoints.Vk.AuthURL,
		TokenURL:     endpoints.Vk.TokenURL,
		UserURL:      "/method/users.get",
		Scope:        "email",
		TokenInQuery: true,
	}
}

func (VK) FetchUser(ctx context.Context, flow *Flow, cfg Config, token *oauth2.Token) (RawProfile, error) {
	query := url.Values{
		"fields": {vkFields},
		"v":      {vkAPIVersion},
	}
	if id := stringify(token.Extra("user_id")); id != "" {
		query.Set("user_ids", id)
	}

	resp, err := flow.Get(ctx, cfg, token, cfg.UserURL, query)
	if err != nil {
		return nil, err
	}
	body, ok := resp.Object()
	if !ok {
		return nil, unexpectedResponse("vk response is not an object", resp)
	}
	if apiErr, ok := body["error"]; ok {
		// VK reports API errors with 200 OK.
		e := unexpectedResponse("vk api error", resp)
		e.Body = apiErr
		return nil, e
	}

	list, _ := body["response"].([]any)
	if len(list) == 0 {
		return nil, unexpectedResponse("vk response has no users", resp)
	}
	user, ok := list[0].(map[string]any)
	if !ok {
		return nil, unexpectedResponse("vk user is not an object", resp)
	}

	out := RawProfile(user)
	if email, ok := token.Extra("email").(string); ok && email != "" {
		out["email"] = email
	}
	return out, nil
}

func (VK) Normalize(_ Config, raw RawProfile) (Profile, error) {
	if err := requireKeys(VKProviderName, raw, "id"); err != nil {
		return nil, err
	}

	p := Profile{
		"uid":        stringify(raw["id"]),
		"first_name": raw["first_name"],
		"last_name":  raw["last_name"],
		"nickname":   raw["screen_name"],
		"image":      raw["photo_200"],
		"email":      raw["email"],
	}
	if name := strings.TrimSpace(raw.String("first_name") + " " + raw.String("last_name")); name != "" {
		p["name"] = name
	}
	return p, nil
}
