package oauth

import (
	"os"
	"time"
)

// Config holds provider credentials and shared gateway settings.
//
// A provider with a blank client id is simply not registered; federated
// login degrades per-provider instead of failing startup.
type Config struct {
	KakaoClientID    string
	KakaoRedirectURI string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	// HTTPTimeout bounds every provider HTTP call.
	HTTPTimeout time.Duration

	// StateTTL is the lifetime of anti-replay state nonces.
	StateTTL time.Duration
}

// DefaultConfig returns gateway defaults. Credentials are intentionally
// empty; they only come from the environment.
func DefaultConfig() Config {
	return Config{
		HTTPTimeout: 10 * time.Second,
		StateTTL:    5 * time.Minute,
	}
}

// LoadConfigFromEnv loads provider credentials from environment variables:
//
//   - LABLINK_KAKAO_CLIENT_ID, LABLINK_KAKAO_REDIRECT_URI
//   - LABLINK_GOOGLE_CLIENT_ID, LABLINK_GOOGLE_CLIENT_SECRET,
//     LABLINK_GOOGLE_REDIRECT_URI
//   - LABLINK_OAUTH_HTTP_TIMEOUT, LABLINK_OAUTH_STATE_TTL (optional
//     Go durations)
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	cfg.KakaoClientID = os.Getenv("LABLINK_KAKAO_CLIENT_ID")
	cfg.KakaoRedirectURI = os.Getenv("LABLINK_KAKAO_REDIRECT_URI")
	cfg.GoogleClientID = os.Getenv("LABLINK_GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = os.Getenv("LABLINK_GOOGLE_CLIENT_SECRET")
	cfg.GoogleRedirectURI = os.Getenv("LABLINK_GOOGLE_REDIRECT_URI")

	if v := os.Getenv("LABLINK_OAUTH_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.HTTPTimeout = d
	}

	if v := os.Getenv("LABLINK_OAUTH_STATE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.StateTTL = d
	}

	return cfg, nil
}

// BuildRegistry registers the providers whose credentials are present.
func BuildRegistry(cfg Config) *Registry {
	var providers []Provider
	if cfg.KakaoClientID != "" {
		providers = append(providers, NewKakao(cfg))
	}
	if cfg.GoogleClientID != "" {
		providers = append(providers, NewGoogle(cfg))
	}
	return NewRegistry(providers...)
}
