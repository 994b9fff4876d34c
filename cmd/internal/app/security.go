package app

import (
	"errors"

	"lablink/cmd/security/token"
)

// ValidateSecurityConfig enforces the startup security policy.
//
// Fail-fast is intentional: a production deployment must never silently fall
// back to unkeyed refresh-token hashing. Enforcement goes through the same
// module that performs the hashing (security/token).
func ValidateSecurityConfig(cfg Config) error {
	if !cfg.RequireTokenHMAC {
		return nil
	}

	// Minimum 32 bytes for an HMAC-SHA256 secret, measured as raw bytes.
	if _, err := token.HMACKeyFromEnv(32); err != nil {
		switch {
		case errors.Is(err, token.ErrHMACKeyMissing):
			return errors.New("security policy: LABLINK_REQUIRE_TOKEN_HMAC=true but LABLINK_TOKEN_HMAC_KEY is missing")
		case errors.Is(err, token.ErrHMACKeyTooShort):
			return errors.New("security policy: LABLINK_REQUIRE_TOKEN_HMAC=true but LABLINK_TOKEN_HMAC_KEY is too short (min 32 bytes)")
		default:
			return err
		}
	}

	// Guards against a future change reintroducing a SHA fallback under policy.
	if !token.HMACEnabled() {
		return errors.New("security policy: LABLINK_REQUIRE_TOKEN_HMAC=true but token hasher is not in HMAC mode")
	}

	return nil
}
