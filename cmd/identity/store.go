package identity

import (
	"context"
	"time"
)

// User is an individual principal.
type User struct {
	ID       int64
	Email    *string
	Nickname string
	Role     Role

	// Linked federated identities, one column per provider.
	KakaoID     *int64
	GoogleEmail *string

	CreatedAt time.Time
}

// Company is an organization principal.
type Company struct {
	ID          int64
	Email       string
	CompanyName string
	Role        Role
	CreatedAt   time.Time
}

// UserAuth bundles a user with its credential hash for login verification.
// Federated-only users may carry an empty hash; password verification then fails.
type UserAuth struct {
	User         User
	PasswordHash string
}

// CompanyAuth bundles a company with its credential hash.
type CompanyAuth struct {
	Company      Company
	PasswordHash string
}

// CreateKakaoUserInput registers a first-time Kakao login.
// An empty sub-profile row is created alongside the user.
type CreateKakaoUserInput struct {
	KakaoID  int64
	Nickname string
	Email    *string
	Now      time.Time
}

// CreateGoogleUserInput registers a first-time Google login with no matching
// local account. PasswordHash is a random throwaway credential so the row
// satisfies the same invariants as a locally registered user.
type CreateGoogleUserInput struct {
	GoogleEmail  string
	Nickname     string
	PasswordHash string
	Now          time.Time
}

// Store is the principal persistence boundary.
//
// All lookups return NotFoundError (ErrNotFound kind) for missing rows;
// creates return ConflictError on uniqueness violations.
type Store interface {
	GetUserByID(ctx context.Context, id int64) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error)
	GetUserByKakaoID(ctx context.Context, kakaoID int64) (User, error)
	GetUserByGoogleEmail(ctx context.Context, googleEmail string) (User, error)

	CreateKakaoUser(ctx context.Context, in CreateKakaoUserInput) (User, error)
	CreateGoogleUser(ctx context.Context, in CreateGoogleUserInput) (User, error)

	// LinkGoogleEmail records a provider email on an existing user
	// (account linking; no new row).
	LinkGoogleEmail(ctx context.Context, userID int64, googleEmail string) (User, error)

	GetCompanyByID(ctx context.Context, id int64) (Company, error)
	GetCompanyAuthByEmail(ctx context.Context, email string) (CompanyAuth, error)
}
