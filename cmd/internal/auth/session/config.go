package session

import (
	"os"
	"time"
)

// Config defines all runtime configuration for the session subsystem.
//
// It controls access and refresh token TTLs, clock skew tolerance, and the
// HS256 signing key. It is intentionally explicit and environment-driven so
// that production deployments can tune security parameters without code
// changes.
type Config struct {
	// Issuer is the value set in the "iss" claim of signed tokens.
	Issuer string

	// AccessTokenTTL defines the lifetime of access tokens.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL defines the lifetime of refresh tokens and of the
	// ledger records backing them.
	RefreshTokenTTL time.Duration

	// ClockSkew defines the allowed time skew during token validation.
	ClockSkew time.Duration

	// JWTSecret is the HS256 signing key for access and refresh tokens.
	JWTSecret string
}

// DefaultConfig returns a secure default configuration suitable for
// development.
//
// Production environments should override values via environment variables.
func DefaultConfig() Config {
	return Config{
		Issuer:          "lablink",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 14 * 24 * time.Hour,
		ClockSkew:       30 * time.Second,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - LABLINK_JWT_SECRET
//
// Optional (durations must be valid Go duration strings):
//   - LABLINK_AUTH_ISSUER
//   - LABLINK_AUTH_ACCESS_TTL
//   - LABLINK_AUTH_REFRESH_TTL
//   - LABLINK_AUTH_CLOCK_SKEW
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("LABLINK_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("LABLINK_AUTH_ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTokenTTL = d
	}

	if v := os.Getenv("LABLINK_AUTH_REFRESH_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTokenTTL = d
	}

	if v := os.Getenv("LABLINK_AUTH_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	cfg.JWTSecret = os.Getenv("LABLINK_JWT_SECRET")
	if cfg.JWTSecret == "" {
		return Config{}, ErrConfig
	}

	// Invariant: refresh tokens must outlive access tokens.
	if cfg.RefreshTokenTTL < cfg.AccessTokenTTL {
		return Config{}, ErrConfig
	}

	return cfg, nil
}
