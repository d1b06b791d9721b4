// Package config loads server configuration from environment variables,
// optionally overridden by a YAML file.
//
// Precedence: defaults < CODECAST_* environment variables < YAML file.
// The YAML file is optional — passing an empty path skips it entirely, so
// a bare `go run ./cmd/server` works with env vars alone.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr         string        `yaml:"addr"`
	DatabasePath string        `yaml:"database_path"`
	LogLevel     string        `yaml:"log_level"` // debug|info|warn|error

	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`

	GitHub GitHubConfig `yaml:"github"`
	Media  MediaConfig  `yaml:"media"`
}

// GitHubConfig covers both the OAuth app (sign-in) and the API token used
// for repository metadata lookups (optional, raises the rate limit).
type GitHubConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	CallbackURL  string `yaml:"callback_url"`
	APIToken     string `yaml:"api_token"`
}

// MediaConfig holds the media CDN key pair. The private key signs the
// short-lived upload tokens handed to the browser; the public key is
// returned alongside so the upload widget can identify itself to the CDN.
type MediaConfig struct {
	PublicKey  string `yaml:"public_key"`
	PrivateKey string `yaml:"private_key"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Addr:         getEnv("CODECAST_ADDR", ":8080"),
		DatabasePath: getEnv("CODECAST_DATABASE_PATH", "data/codecast.db"),
		LogLevel:     getEnv("CODECAST_LOG_LEVEL", "info"),
		JWTSecret:    os.Getenv("CODECAST_JWT_SECRET"),
		SessionTTL:   30 * 24 * time.Hour,
		GitHub: GitHubConfig{
			ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
			CallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),
			APIToken:     os.Getenv("GITHUB_TOKEN"),
		},
		Media: MediaConfig{
			PublicKey:  os.Getenv("MEDIA_PUBLIC_KEY"),
			PrivateKey: os.Getenv("MEDIA_PRIVATE_KEY"),
		},
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: opening %s: %w", path, err)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
