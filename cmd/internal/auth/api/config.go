package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
)

// Config controls auth API behavior and security defaults.
type Config struct {
	MaxBodyBytes int64

	// Refresh cookie transport.
	RefreshCookieName string
	CookiePath        string
	CookieDomain      string
	CookieSecure      bool
	CookieSameSite    http.SameSite

	// AccessTokenHeader is the response header carrying the access token.
	AccessTokenHeader string
}

// LoadConfigFromEnv loads auth API config from environment variables with
// safe defaults:
//
//   - LABLINK_AUTH_MAX_BODY_BYTES
//   - LABLINK_AUTH_REFRESH_COOKIE_NAME
//   - LABLINK_AUTH_COOKIE_PATH, LABLINK_AUTH_COOKIE_DOMAIN
//   - LABLINK_AUTH_COOKIE_SECURE, LABLINK_AUTH_COOKIE_SAMESITE
//     (lax|strict|none)
//   - LABLINK_AUTH_ACCESS_HEADER
func LoadConfigFromEnv() Config {
	cfg := Config{
		MaxBodyBytes:      envInt64("LABLINK_AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB
		RefreshCookieName: envString("LABLINK_AUTH_REFRESH_COOKIE_NAME", "RefreshToken"),
		CookiePath:        envString("LABLINK_AUTH_COOKIE_PATH", "/"),
		CookieDomain:      strings.TrimSpace(os.Getenv("LABLINK_AUTH_COOKIE_DOMAIN")),
		CookieSecure:      envBool("LABLINK_AUTH_COOKIE_SECURE", false),
		CookieSameSite:    envSameSite("LABLINK_AUTH_COOKIE_SAMESITE", http.SameSiteLaxMode),
		AccessTokenHeader: envString("LABLINK_AUTH_ACCESS_HEADER", "Authorization"),
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return cfg
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envSameSite(key string, def http.SameSite) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return def
	}
}
