// Package config loads gateway and identity settings from the environment.
package config

import (
	"os"
	"time"
)

// Config holds all runtime settings. Zero values fall back to local-dev
// defaults applied in Load.
type Config struct {
	ListenAddr  string
	UpstreamURL string

	UpstreamTimeout time.Duration
	CookieSecure    bool
	CookieDomain    string
	DocsDir         string

	RedisURL       string
	IdentityDSN    string
	GoogleClientID string

	// EmbedIdentity runs the identity service in-process and points the
	// gateway at it, instead of proxying to UpstreamURL.
	EmbedIdentity bool
}

// Load reads the configuration from environment variables.
func Load() Config {
	cfg := Config{
		ListenAddr:      getenv("LISTEN_ADDR", ":3000"),
		UpstreamURL:     getenv("UPSTREAM_URL", "http://localhost:8000"),
		UpstreamTimeout: getdur("UPSTREAM_TIMEOUT", 10*time.Second),
		CookieSecure:    os.Getenv("COOKIE_SECURE") == "true",
		CookieDomain:    os.Getenv("COOKIE_DOMAIN"),
		DocsDir:         getenv("DOCS_DIR", "docs"),
		RedisURL:        os.Getenv("REDIS_URL"),
		IdentityDSN:     os.Getenv("IDENTITY_DSN"),
		GoogleClientID:  os.Getenv("GOOGLE_CLIENT_ID"),
		EmbedIdentity:   os.Getenv("EMBED_IDENTITY") == "true",
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getdur(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
