package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/oauthlink/pkg/db"
	"github.com/dmitrymomot/oauthlink/pkg/logger"
	"github.com/dmitrymomot/oauthlink/pkg/redis"
)

// Session stores for OAuth state between redirect and callback.
const (
	SessionStoreCookie = "cookie"
	SessionStoreRedis  = "redis"
)

// Config is the service configuration, read from the environment.
type Config struct {
	HTTP  HTTP
	Auth  Auth
	Log   logger.Config
	DB    db.Config
	Redis redis.Config
}

// HTTP configures the listener.
type HTTP struct {
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// Public origin used to build default redirect URIs.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Auth configures cookies, the session store and the provider catalog.
type Auth struct {
	CookieSecret string `env:"COOKIE_SECRET,required,notEmpty"`
	CookieDomain string `env:"COOKIE_DOMAIN"`
	CookieSecure bool   `env:"COOKIE_SECURE" envDefault:"true"`

	SessionStore string        `env:"SESSION_STORE" envDefault:"cookie"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"10m"`
	UserTTL      time.Duration `env:"USER_SESSION_TTL" envDefault:"720h"`

	ProvidersFile string `env:"PROVIDERS_FILE" envDefault:"providers.yaml"`
}

// Load reads dotenv files that exist, then parses the environment into a
// Config. Variables already set in the environment win over dotenv values.
func Load(files ...string) (Config, error) {
	if err := LoadDotenv(files...); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := Parse(&cfg); err != nil {
		return Config{}, err
	}
	switch cfg.Auth.SessionStore {
	case SessionStoreCookie, SessionStoreRedis:
	default:
		return Config{}, fmt.Errorf("config: unknown SESSION_STORE %q", cfg.Auth.SessionStore)
	}
	if cfg.Auth.SessionStore == SessionStoreRedis && cfg.Redis.URL == "" {
		return Config{}, errors.New("config: REDIS_URL is required for the redis session store")
	}
	return cfg, nil
}

// Parse loads env vars into target, a pointer to a struct with env tags.
func Parse(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// LoadDotenv loads the dotenv files that exist without overriding variables
// already set.
func LoadDotenv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}
