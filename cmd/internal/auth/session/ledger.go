package session

import (
	"context"
	"time"

	"lablink/cmd/identity"
)

// Record is one refresh-token row in the ledger.
//
// The raw refresh token never appears here; TokenHash is its one-way hash.
type Record struct {
	// ID is the ledger row id (ULID).
	ID string

	// TokenID is the jti embedded in the signed refresh token (UUID).
	// Unique across live and revoked records.
	TokenID string

	// TokenHash is the hex-encoded one-way hash of the raw token.
	TokenHash string

	OwnerID   int64
	OwnerKind identity.Kind

	IssuedAt  time.Time
	ExpiresAt time.Time

	// RevokedAt is set at most once; a revoked record never becomes live
	// again.
	RevokedAt *time.Time
}

// Live reports whether the record is usable at the given instant.
func (r Record) Live(now time.Time) bool {
	return r.RevokedAt == nil && r.ExpiresAt.After(now)
}

// Ledger is the authoritative registry of refresh tokens.
//
// Implementations must make Rotate one-shot: of any number of concurrent
// Rotate calls presenting the same token, at most one succeeds and the
// rest fail with ErrInvalidToken.
type Ledger interface {
	// Insert stores a freshly issued record.
	Insert(ctx context.Context, rec Record) error

	// Rotate atomically retires the record identified by tokenID and
	// stores next in its place. The next record's OwnerID and OwnerKind
	// are taken from the retired record; the caller does not know the
	// owner until rotation succeeds.
	//
	// Checks run in a fixed order against the locked record:
	// unknown tokenID -> ErrInvalidToken; already revoked ->
	// ErrInvalidToken; expired -> ErrExpiredToken; presentedHash differs
	// from the stored hash -> ErrInvalidToken. On success the retired
	// record is returned so the caller can recover the owner.
	Rotate(ctx context.Context, now time.Time, tokenID, presentedHash string, next Record) (Record, error)

	// RevokeAll revokes every live record of one principal. Revoking an
	// already-revoked record is a no-op.
	RevokeAll(ctx context.Context, now time.Time, ownerID int64, ownerKind identity.Kind) error

	// Sweep deletes records that expired before the given instant and
	// returns how many were removed.
	Sweep(ctx context.Context, before time.Time) (int64, error)
}
