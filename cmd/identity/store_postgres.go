package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// Design notes:
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Schema/table identifiers are safely quoted to avoid SQL injection via identifiers.
// - Errors are mapped to identity sentinel kinds where appropriate.
//
// Expected schema (managed outside this package):
//
//	lablink.users (id bigserial PK, email text NULL, email_norm text NULL UNIQUE,
//	               nickname text NOT NULL, role text NOT NULL,
//	               password_hash text NULL, kakao_id bigint NULL UNIQUE,
//	               google_email text NULL UNIQUE, created_at timestamptz NOT NULL)
//	lablink.user_infos (id bigserial PK, user_id bigint NOT NULL REFERENCES users,
//	                    created_at timestamptz NOT NULL)
//	lablink.companies (id bigserial PK, email text NOT NULL, email_norm text NOT NULL UNIQUE,
//	                   company_name text NOT NULL, role text NOT NULL,
//	                   password_hash text NOT NULL, created_at timestamptz NOT NULL)
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the store (default "lablink").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with secure defaults.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "lablink",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

const userColumns = `id, email, nickname, role, kakao_id, google_email, created_at`

func (s *PostgresStore) scanUser(row pgx.Row) (User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.Nickname, &role, &u.KakaoID, &u.GoogleEmail, &u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	u.Role = Role(role)
	return u, nil
}

// GetUserByID loads a user by primary key.
func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (User, error) {
	const op = "identity.GetUserByID"

	users := pgIdent(s.schema, "users")
	u, err := s.scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+users+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUserByEmail loads a user by its normalized primary email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.GetUserByEmail"

	users := pgIdent(s.schema, "users")
	u, err := s.scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+users+` WHERE email_norm = $1`, NormalizeEmail(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUserAuthByEmail loads a user together with its password hash.
func (s *PostgresStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	const op = "identity.GetUserAuthByEmail"

	users := pgIdent(s.schema, "users")
	var u User
	var role string
	var pwHash *string
	err := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+`, password_hash FROM `+users+` WHERE email_norm = $1`,
		NormalizeEmail(email),
	).Scan(&u.ID, &u.Email, &u.Nickname, &role, &u.KakaoID, &u.GoogleEmail, &u.CreatedAt, &pwHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserAuth{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return UserAuth{}, err
	}
	u.Role = Role(role)

	out := UserAuth{User: u}
	if pwHash != nil {
		out.PasswordHash = *pwHash
	}
	return out, nil
}

// GetUserByKakaoID loads a user by its linked Kakao id.
func (s *PostgresStore) GetUserByKakaoID(ctx context.Context, kakaoID int64) (User, error) {
	const op = "identity.GetUserByKakaoID"

	users := pgIdent(s.schema, "users")
	u, err := s.scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+users+` WHERE kakao_id = $1`, kakaoID))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUserByGoogleEmail loads a user by its linked Google email.
func (s *PostgresStore) GetUserByGoogleEmail(ctx context.Context, googleEmail string) (User, error) {
	const op = "identity.GetUserByGoogleEmail"

	users := pgIdent(s.schema, "users")
	u, err := s.scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+users+` WHERE google_email = $1`, NormalizeEmail(googleEmail)))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// CreateKakaoUser inserts a user for a first-time Kakao login, together with
// its empty sub-profile row, in one transaction.
func (s *PostgresStore) CreateKakaoUser(ctx context.Context, in CreateKakaoUserInput) (User, error) {
	const op = "identity.CreateKakaoUser"

	if in.KakaoID == 0 {
		return User{}, pgInvalid(op, "kakao id is required")
	}
	nickname := strings.TrimSpace(in.Nickname)
	if nickname == "" {
		return User{}, pgInvalid(op, "nickname is required")
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	email := pgTrimPtr(in.Email)
	var emailNorm *string
	if email != nil {
		n := NormalizeEmail(*email)
		emailNorm = &n
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	if err != nil {
		return User{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	users := pgIdent(s.schema, "users")
	infos := pgIdent(s.schema, "user_infos")

	var userID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO `+users+` (email, email_norm, nickname, role, kakao_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		email, emailNorm, nickname, string(RoleUser), in.KakaoID, now,
	).Scan(&userID)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO `+infos+` (user_id, created_at) VALUES ($1, $2)`, userID, now); err != nil {
		return User{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return User{}, err
	}

	kid := in.KakaoID
	return User{
		ID:        userID,
		Email:     email,
		Nickname:  nickname,
		Role:      RoleUser,
		KakaoID:   &kid,
		CreatedAt: now,
	}, nil
}

// CreateGoogleUser inserts a user for a first-time Google login with no
// matching local account.
func (s *PostgresStore) CreateGoogleUser(ctx context.Context, in CreateGoogleUserInput) (User, error) {
	const op = "identity.CreateGoogleUser"

	googleEmail := NormalizeEmail(in.GoogleEmail)
	if googleEmail == "" {
		return User{}, pgInvalid(op, "google email is required")
	}
	nickname := strings.TrimSpace(in.Nickname)
	if nickname == "" {
		return User{}, pgInvalid(op, "nickname is required")
	}
	if in.PasswordHash == "" {
		return User{}, pgInvalid(op, "password hash is required")
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	if err != nil {
		return User{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	users := pgIdent(s.schema, "users")
	infos := pgIdent(s.schema, "user_infos")

	var userID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO `+users+` (nickname, role, password_hash, google_email, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		nickname, string(RoleUser), in.PasswordHash, googleEmail, now,
	).Scan(&userID)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO `+infos+` (user_id, created_at) VALUES ($1, $2)`, userID, now); err != nil {
		return User{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return User{}, err
	}

	ge := googleEmail
	return User{
		ID:          userID,
		Nickname:    nickname,
		Role:        RoleUser,
		GoogleEmail: &ge,
		CreatedAt:   now,
	}, nil
}

// LinkGoogleEmail records a Google email on an existing user row.
func (s *PostgresStore) LinkGoogleEmail(ctx context.Context, userID int64, googleEmail string) (User, error) {
	const op = "identity.LinkGoogleEmail"

	ge := NormalizeEmail(googleEmail)
	if ge == "" {
		return User{}, pgInvalid(op, "google email is required")
	}

	users := pgIdent(s.schema, "users")
	u, err := s.scanUser(s.pool.QueryRow(ctx,
		`UPDATE `+users+` SET google_email = $2
		 WHERE id = $1
		 RETURNING `+userColumns,
		userID, ge,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}
	return u, nil
}

// GetCompanyByID loads a company by primary key.
func (s *PostgresStore) GetCompanyByID(ctx context.Context, id int64) (Company, error) {
	const op = "identity.GetCompanyByID"

	companies := pgIdent(s.schema, "companies")
	var c Company
	var role string
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, company_name, role, created_at FROM `+companies+` WHERE id = $1`, id,
	).Scan(&c.ID, &c.Email, &c.CompanyName, &role, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, NotFoundError{Op: op, Resource: "company"}
	}
	if err != nil {
		return Company{}, err
	}
	c.Role = Role(role)
	return c, nil
}

// GetCompanyAuthByEmail loads a company together with its password hash.
func (s *PostgresStore) GetCompanyAuthByEmail(ctx context.Context, email string) (CompanyAuth, error) {
	const op = "identity.GetCompanyAuthByEmail"

	companies := pgIdent(s.schema, "companies")
	var c Company
	var role, pwHash string
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, company_name, role, password_hash, created_at
		 FROM `+companies+` WHERE email_norm = $1`,
		NormalizeEmail(email),
	).Scan(&c.ID, &c.Email, &c.CompanyName, &role, &pwHash, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CompanyAuth{}, NotFoundError{Op: op, Resource: "company"}
	}
	if err != nil {
		return CompanyAuth{}, err
	}
	c.Role = Role(role)
	return CompanyAuth{Company: c, PasswordHash: pwHash}, nil
}

// ---- helpers ----

func pgTrimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

// pgInvalid standardizes invalid input errors.
func pgInvalid(op, msg string) error {
	return OpError{Op: op, Kind: ErrInvalidInput, Msg: msg}
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	// Prefer stable constraint names; fall back to substring heuristics.
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))
	switch c {
	case "uq_users_email_norm", "uq_companies_email_norm":
		return "email", true
	case "uq_users_kakao_id":
		return "kakao_id", true
	case "uq_users_google_email":
		return "google_email", true
	default:
		switch {
		case strings.Contains(c, "kakao"):
			return "kakao_id", true
		case strings.Contains(c, "google"):
			return "google_email", true
		case strings.Contains(c, "email"):
			return "email", true
		default:
			return "unique", true
		}
	}
}
