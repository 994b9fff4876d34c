// Package session implements lablink's session lifecycle.
//
// It issues, verifies, rotates, and revokes bearer credentials for two
// subject kinds (users and companies), and orchestrates federated login
// via the oauth package.
//
// Access tokens are short-lived HS256 JWTs. Refresh tokens are signed
// tokens carrying only a token id (jti); the ledger stores a one-way hash
// of the raw refresh token (HMAC-SHA256 when LABLINK_TOKEN_HMAC_KEY is set,
// otherwise SHA-256) and never the token itself. Rotation is one-shot:
// a given refresh token can be successfully rotated at most once.
package session
