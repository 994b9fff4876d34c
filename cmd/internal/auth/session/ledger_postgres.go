package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lablink/cmd/identity"
)

// PostgresLedger stores refresh-token records in Postgres.
//
// Expected schema (managed outside this package):
//
//	lablink.refresh_tokens (
//	    id          text PRIMARY KEY,
//	    jti         uuid NOT NULL UNIQUE,
//	    token_hash  text NOT NULL,
//	    owner_id    bigint NOT NULL,
//	    owner_kind  text NOT NULL,
//	    issued_at   timestamptz NOT NULL,
//	    expires_at  timestamptz NOT NULL,
//	    revoked_at  timestamptz NULL
//	)
type PostgresLedger struct {
	pool   *pgxpool.Pool
	schema string
}

// NewPostgresLedger constructs a PostgresLedger on the "lablink" schema.
func NewPostgresLedger(pool *pgxpool.Pool) (*PostgresLedger, error) {
	if pool == nil {
		return nil, errors.New("session: nil pool")
	}
	return &PostgresLedger{pool: pool, schema: "lablink"}, nil
}

func (l *PostgresLedger) table() string {
	return pgx.Identifier{l.schema, "refresh_tokens"}.Sanitize()
}

func (l *PostgresLedger) Insert(ctx context.Context, rec Record) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO `+l.table()+` (
			id, jti, token_hash, owner_id, owner_kind,
			issued_at, expires_at, revoked_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NULL)
	`, rec.ID, rec.TokenID, rec.TokenHash, rec.OwnerID, string(rec.OwnerKind),
		rec.IssuedAt, rec.ExpiresAt)
	return err
}

// Rotate locks the presented record with SELECT ... FOR UPDATE so that
// concurrent rotations of the same token serialize; the loser then sees
// revoked_at set and fails.
func (l *PostgresLedger) Rotate(ctx context.Context, now time.Time, tokenID, presentedHash string, next Record) (Record, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return Record{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		rec  Record
		kind string
	)
	err = tx.QueryRow(ctx, `
		SELECT id, jti, token_hash, owner_id, owner_kind,
		       issued_at, expires_at, revoked_at
		FROM `+l.table()+`
		WHERE jti = $1
		FOR UPDATE
	`, tokenID).Scan(
		&rec.ID, &rec.TokenID, &rec.TokenHash, &rec.OwnerID, &kind,
		&rec.IssuedAt, &rec.ExpiresAt, &rec.RevokedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrInvalidToken
	}
	if err != nil {
		return Record{}, err
	}
	rec.OwnerKind = identity.Kind(kind)

	if rec.RevokedAt != nil {
		return Record{}, ErrInvalidToken
	}
	if !rec.ExpiresAt.After(now) {
		return Record{}, ErrExpiredToken
	}
	if rec.TokenHash != presentedHash {
		return Record{}, ErrInvalidToken
	}

	if _, err := tx.Exec(ctx, `
		UPDATE `+l.table()+`
		SET revoked_at = $2
		WHERE jti = $1 AND revoked_at IS NULL
	`, tokenID, now); err != nil {
		return Record{}, err
	}

	// The successor inherits the retired record's owner.
	if _, err := tx.Exec(ctx, `
		INSERT INTO `+l.table()+` (
			id, jti, token_hash, owner_id, owner_kind,
			issued_at, expires_at, revoked_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NULL)
	`, next.ID, next.TokenID, next.TokenHash, rec.OwnerID, string(rec.OwnerKind),
		next.IssuedAt, next.ExpiresAt); err != nil {
		return Record{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, err
	}

	revoked := now
	rec.RevokedAt = &revoked
	return rec, nil
}

func (l *PostgresLedger) RevokeAll(ctx context.Context, now time.Time, ownerID int64, ownerKind identity.Kind) error {
	_, err := l.pool.Exec(ctx, `
		UPDATE `+l.table()+`
		SET revoked_at = COALESCE(revoked_at, $3)
		WHERE owner_id = $1 AND owner_kind = $2
	`, ownerID, string(ownerKind), now)
	return err
}

func (l *PostgresLedger) Sweep(ctx context.Context, before time.Time) (int64, error) {
	tag, err := l.pool.Exec(ctx, `
		DELETE FROM `+l.table()+` WHERE expires_at < $1
	`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
