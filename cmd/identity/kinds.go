package identity

import "strings"

// Kind tags the two principal variants. The session layer treats principals
// as an opaque (id, kind) pair; Kind is the only polymorphism mechanism.
type Kind string

const (
	// KindUser is an individual user account.
	KindUser Kind = "user"
	// KindCompany is an organization account.
	KindCompany Kind = "company"
)

// ParseKind maps a wire/storage tag to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindUser:
		return KindUser, true
	case KindCompany:
		return KindCompany, true
	default:
		return "", false
	}
}

// Role is the coarse-grained authorization tag attached to a principal.
// It is carried in access-token claims and consumed outside this subsystem.
type Role string

const (
	RoleUser     Role = "user"
	RoleAdmin    Role = "admin"
	RoleBusiness Role = "business"
)
