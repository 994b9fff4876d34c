package session

import (
	"context"
	"sync"
	"time"

	"lablink/cmd/identity"
)

// MemoryLedger is an in-memory Ledger for db-less development and tests.
//
// A single mutex spans each Rotate, which gives the same one-shot
// guarantee the Postgres backend gets from row locking.
type MemoryLedger struct {
	mu   sync.Mutex
	recs map[string]*Record // keyed by TokenID
}

// NewMemoryLedger constructs an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{recs: make(map[string]*Record)}
}

func (l *MemoryLedger) Insert(_ context.Context, rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cp := rec
	l.recs[rec.TokenID] = &cp
	return nil
}

func (l *MemoryLedger) Rotate(_ context.Context, now time.Time, tokenID, presentedHash string, next Record) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.recs[tokenID]
	if !ok {
		return Record{}, ErrInvalidToken
	}
	if rec.RevokedAt != nil {
		return Record{}, ErrInvalidToken
	}
	if !rec.ExpiresAt.After(now) {
		return Record{}, ErrExpiredToken
	}
	if rec.TokenHash != presentedHash {
		return Record{}, ErrInvalidToken
	}

	revoked := now
	rec.RevokedAt = &revoked

	cp := next
	cp.OwnerID = rec.OwnerID
	cp.OwnerKind = rec.OwnerKind
	l.recs[next.TokenID] = &cp

	return *rec, nil
}

func (l *MemoryLedger) RevokeAll(_ context.Context, now time.Time, ownerID int64, ownerKind identity.Kind) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, rec := range l.recs {
		if rec.OwnerID != ownerID || rec.OwnerKind != ownerKind {
			continue
		}
		if rec.RevokedAt != nil {
			continue
		}
		revoked := now
		rec.RevokedAt = &revoked
	}
	return nil
}

func (l *MemoryLedger) Sweep(_ context.Context, before time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int64
	for id, rec := range l.recs {
		if rec.ExpiresAt.Before(before) {
			delete(l.recs, id)
			n++
		}
	}
	return n, nil
}

// get is a test helper.
func (l *MemoryLedger) get(tokenID string) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.recs[tokenID]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}
