package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string // "json" or "pretty"

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// Security policy:
	// If true, LABLINK_TOKEN_HMAC_KEY MUST be set (>= 32 bytes) and refresh-token
	// hashing must be HMAC-based.
	RequireTokenHMAC bool

	// SweepInterval is how often expired refresh-token rows and stale OAuth
	// state nonces are deleted. Zero disables the sweeper.
	SweepInterval time.Duration

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("LABLINK_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("LABLINK_LOG_LEVEL", "info"),
		LogFormat: EnvString("LABLINK_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("LABLINK_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("LABLINK_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("LABLINK_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("LABLINK_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("LABLINK_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("LABLINK_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("LABLINK_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("LABLINK_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("LABLINK_READINESS_REQUIRE_DB", false),

		RequireTokenHMAC: EnvBool("LABLINK_REQUIRE_TOKEN_HMAC", false),

		SweepInterval: EnvDuration("LABLINK_SWEEP_INTERVAL", 10*time.Minute),

		CORSAllowedOrigins:   EnvStringSlice("LABLINK_CORS_ALLOWED_ORIGINS", nil),
		CORSAllowCredentials: EnvBool("LABLINK_CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAgeSeconds:    EnvInt("LABLINK_CORS_MAX_AGE_SECONDS", 600),
	}
}
