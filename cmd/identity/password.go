package identity

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"lablink/cmd/security/password"
)

// HashPassword returns a PHC-style Argon2id hash using the env-driven
// security/password configuration. identity MUST NOT drift from that
// configuration, so there is no local parameter surface here.
func HashPassword(plain string) (string, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		return "", err
	}

	enc, err := cfg.Hash(plain)
	if err != nil {
		switch {
		case errors.Is(err, password.ErrPasswordTooShort):
			return "", OpError{Op: "identity.HashPassword", Kind: ErrInvalidInput, Msg: "password too short"}
		case errors.Is(err, password.ErrPasswordTooLong):
			return "", OpError{Op: "identity.HashPassword", Kind: ErrInvalidInput, Msg: "password too long"}
		default:
			return "", err
		}
	}
	return enc, nil
}

// VerifyPassword checks a password against a PHC Argon2id hash.
// An empty stored hash (federated-only account) never verifies.
func VerifyPassword(plain, encodedPHC string) (bool, error) {
	if encodedPHC == "" {
		return false, nil
	}
	cfg, err := password.FromEnv()
	if err != nil {
		return false, err
	}
	return cfg.Verify(encodedPHC, plain)
}

// NewThrowawayPassword returns a random credential for accounts created by
// federated login, where no user-chosen password exists. The plaintext is
// discarded immediately after hashing.
func NewThrowawayPassword() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
