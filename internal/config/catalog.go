package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/oauthlink/pkg/oauth"
)

// Provider is one enabled OAuth provider. Strategy names the built-in
// strategy and defaults to the provider key.
type Provider struct {
	Strategy     string `yaml:"strategy"`
	oauth.Config `yaml:",inline"`
}

// Catalog maps provider names, as used in URLs, to their settings.
type Catalog map[string]Provider

type catalogFile struct {
	Providers Catalog `yaml:"providers"`
}

// LoadCatalog reads the YAML provider catalog at path, expanding ${VAR}
// references, and overlays <NAME>_OAUTH_* env vars on every entry. Built-in
// strategies absent from the file are enabled when <NAME>_OAUTH_CLIENT_ID is
// set, and entries left without a client id are dropped. A missing file is
// not an error.
//
//	providers:
//	  github:
//	    client_id: ${GITHUB_CLIENT_ID}
//	    client_secret: ${GITHUB_CLIENT_SECRET}
//	  keycloak:
//	    strategy: oidc
//	    site: https://sso.example.com/realms/main
func LoadCatalog(path string) (Catalog, error) {
	catalog := Catalog{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read providers: %w", err)
		default:
			if catalog, err = ParseCatalog(data); err != nil {
				return nil, err
			}
		}
	}

	for _, s := range oauth.BuiltinStrategies() {
		if _, ok := catalog[s.Name()]; !ok {
			catalog[s.Name()] = Provider{Strategy: s.Name()}
		}
	}

	for name, p := range catalog {
		overlay, err := envProvider(name)
		if err != nil {
			return nil, err
		}
		p.Config = oauth.Merge(p.Config, overlay)
		if p.ClientID == "" {
			delete(catalog, name)
			continue
		}
		catalog[name] = p
	}
	return catalog, nil
}

// ParseCatalog decodes catalog YAML after env expansion.
func ParseCatalog(data []byte) (Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &f); err != nil {
		return nil, fmt.Errorf("config: parse providers: %w", err)
	}
	if f.Providers == nil {
		return Catalog{}, nil
	}
	for name, p := range f.Providers {
		if p.Strategy == "" {
			p.Strategy = name
			f.Providers[name] = p
		}
	}
	return f.Providers, nil
}

func envProvider(name string) (oauth.Config, error) {
	var cfg oauth.Config
	prefix := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name)) + "_OAUTH_"
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: prefix}); err != nil {
		return oauth.Config{}, fmt.Errorf("config: parse %s provider env: %w", name, err)
	}
	return cfg, nil
}

// Names returns provider names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Register adds every provider to reg. Each entry gets its own strategy
// instance so per-issuer caches are not shared between providers.
func (c Catalog) Register(reg *oauth.Registry) error {
	for _, name := range c.Names() {
		s, ok := oauth.Builtin(c[name].Strategy)
		if !ok {
			return fmt.Errorf("config: provider %s: %w: %s", name, oauth.ErrUnknownProvider, c[name].Strategy)
		}
		reg.RegisterAs(name, s)
	}
	return nil
}

// Configs returns each provider's oauth.Config with RedirectURI defaulted to
// <baseURL>/auth/<name>/callback.
func (c Catalog) Configs(baseURL string) map[string]oauth.Config {
	out := make(map[string]oauth.Config, len(c))
	base := strings.TrimSuffix(baseURL, "/")
	for name, p := range c {
		cfg := p.Config
		if cfg.RedirectURI == "" {
			cfg.RedirectURI = base + "/auth/" + name + "/callback"
		}
		out[name] = cfg
	}
	return out
}
