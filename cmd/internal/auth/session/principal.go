package session

import (
	"time"

	"lablink/cmd/identity"
)

// Principal is the authenticated subject a session belongs to.
//
// ID is only meaningful together with Kind: user 7 and company 7 are
// distinct principals.
type Principal struct {
	ID   int64
	Kind identity.Kind
	Role identity.Role

	// Name is the display name (nickname for users, company name for
	// companies). Carried in access tokens for client convenience.
	Name string
}

// PrincipalClaims is the verified content of an access token.
type PrincipalClaims struct {
	Principal

	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// UserPrincipal builds a Principal from a user row.
func UserPrincipal(u identity.User) Principal {
	return Principal{ID: u.ID, Kind: identity.KindUser, Role: u.Role, Name: u.Nickname}
}

// CompanyPrincipal builds a Principal from a company row.
func CompanyPrincipal(c identity.Company) Principal {
	return Principal{ID: c.ID, Kind: identity.KindCompany, Role: c.Role, Name: c.CompanyName}
}
