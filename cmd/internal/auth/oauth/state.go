package oauth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StateStore binds each consent round-trip to a consume-once nonce.
//
// Consume must be a single atomic fetch-and-delete: of two concurrent
// consumers of one nonce at most one observes it, and a consume with the
// wrong provider tag still destroys the nonce.
type StateStore interface {
	// Begin mints a nonce bound to a provider with the store's TTL.
	Begin(ctx context.Context, now time.Time, provider Tag) (state string, err error)

	// Consume atomically removes the nonce and reports whether it was
	// present, unexpired, and bound to the given provider.
	Consume(ctx context.Context, now time.Time, state string, provider Tag) (bool, error)

	// Purge deletes expired nonces and returns how many were removed.
	Purge(ctx context.Context, before time.Time) (int64, error)
}

func newStateNonce() string {
	return uuid.NewString()
}
