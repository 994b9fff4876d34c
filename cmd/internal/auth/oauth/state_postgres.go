package oauth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStateStore keeps anti-replay nonces in Postgres.
//
// Expected schema (managed outside this package):
//
//	lablink.oauth_states (
//	    state      uuid PRIMARY KEY,
//	    provider   text NOT NULL,
//	    created_at timestamptz NOT NULL,
//	    expires_at timestamptz NOT NULL
//	)
type PostgresStateStore struct {
	pool   *pgxpool.Pool
	schema string
	ttl    time.Duration
}

// NewPostgresStateStore constructs a store on the "lablink" schema.
func NewPostgresStateStore(pool *pgxpool.Pool, ttl time.Duration) (*PostgresStateStore, error) {
	if pool == nil {
		return nil, errors.New("oauth: nil pool")
	}
	if ttl <= 0 {
		ttl = DefaultConfig().StateTTL
	}
	return &PostgresStateStore{pool: pool, schema: "lablink", ttl: ttl}, nil
}

func (s *PostgresStateStore) table() string {
	return pgx.Identifier{s.schema, "oauth_states"}.Sanitize()
}

func (s *PostgresStateStore) Begin(ctx context.Context, now time.Time, provider Tag) (string, error) {
	state := newStateNonce()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+s.table()+` (state, provider, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`, state, string(provider), now, now.Add(s.ttl))
	if err != nil {
		return "", err
	}
	return state, nil
}

// Consume is one atomic statement: the row is deleted whether or not the
// provider tag matches, so a wrong-tag attempt still burns the nonce.
// Expired rows read as absent even before the sweeper purges them.
func (s *PostgresStateStore) Consume(ctx context.Context, now time.Time, state string, provider Tag) (bool, error) {
	// The column is uuid typed; pre-validate so a malformed value reads
	// as absent instead of surfacing a database error.
	if _, err := uuid.Parse(state); err != nil {
		return false, nil
	}

	var stored string
	err := s.pool.QueryRow(ctx, `
		DELETE FROM `+s.table()+`
		WHERE state = $1 AND expires_at > $2
		RETURNING provider
	`, state, now).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == string(provider), nil
}

func (s *PostgresStateStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM `+s.table()+` WHERE expires_at < $1
	`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
