package password

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Params controls Argon2id hashing cost. MemoryKiB is in KiB as required by argon2.IDKey.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy controls password length validation.
type Policy struct {
	MinLength int
	MaxLength int
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Params
	Policy Policy
}

// DefaultConfig returns a baseline suitable for interactive logins.
// Parallelism follows available CPUs, clamped to [1..4] to keep
// resource usage predictable in containers.
func DefaultConfig() Config {
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Params: Params{
			MemoryKiB:   64 * 1024, // 64 MiB
			Iterations:  3,
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above; safe conversion.
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength: 8,
			MaxLength: 256,
		},
	}
}

// FromEnv loads config from environment variables.
//
// Env surface:
// - LABLINK_PASSWORD_MIN_LEN
// - LABLINK_PASSWORD_MAX_LEN
// - LABLINK_ARGON2_MEMORY_KIB
// - LABLINK_ARGON2_ITERATIONS
// - LABLINK_ARGON2_PARALLELISM
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v, ok := os.LookupEnv("LABLINK_PASSWORD_MIN_LEN"); ok {
		n, err := envInt(v, 1, 1024)
		if err != nil {
			return Config{}, fmt.Errorf("LABLINK_PASSWORD_MIN_LEN: %w", err)
		}
		cfg.Policy.MinLength = n
	}

	if v, ok := os.LookupEnv("LABLINK_PASSWORD_MAX_LEN"); ok {
		n, err := envInt(v, 1, 4096)
		if err != nil {
			return Config{}, fmt.Errorf("LABLINK_PASSWORD_MAX_LEN: %w", err)
		}
		cfg.Policy.MaxLength = n
	}

	if v, ok := os.LookupEnv("LABLINK_ARGON2_MEMORY_KIB"); ok {
		n, err := envInt(v, 8*1024, 1024*1024) // 8 MiB .. 1 GiB
		if err != nil {
			return Config{}, fmt.Errorf("LABLINK_ARGON2_MEMORY_KIB: %w", err)
		}
		cfg.Params.MemoryKiB = uint32(n) // #nosec G115 -- bounded above.
	}

	if v, ok := os.LookupEnv("LABLINK_ARGON2_ITERATIONS"); ok {
		n, err := envInt(v, 1, 20)
		if err != nil {
			return Config{}, fmt.Errorf("LABLINK_ARGON2_ITERATIONS: %w", err)
		}
		cfg.Params.Iterations = uint32(n) // #nosec G115 -- bounded above.
	}

	if v, ok := os.LookupEnv("LABLINK_ARGON2_PARALLELISM"); ok {
		n, err := envInt(v, 1, 255)
		if err != nil {
			return Config{}, fmt.Errorf("LABLINK_ARGON2_PARALLELISM: %w", err)
		}
		cfg.Params.Parallelism = uint8(n) // #nosec G115 -- bounded above.
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf(
			"password policy invalid: min_len(%d) > max_len(%d)",
			cfg.Policy.MinLength,
			cfg.Policy.MaxLength,
		)
	}

	return cfg, nil
}

func envInt(s string, minVal, maxVal int) (int, error) {
	s = strings.TrimSpace(s)
	i64, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}
	i := int(i64)
	if i < minVal || i > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return i, nil
}
