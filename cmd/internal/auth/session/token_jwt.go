package session

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lablink/cmd/identity"
)

// TokenManager mints and verifies the signed tokens of the session
// subsystem.
type TokenManager interface {
	// MintAccess issues a short-lived access token for a principal.
	MintAccess(p Principal, now time.Time) (token string, exp time.Time, err error)

	// VerifyAccess verifies an access token's signature, issuer, and
	// expiry, and returns its claims.
	VerifyAccess(token string, now time.Time) (PrincipalClaims, error)

	// MintRefresh issues a refresh token whose only payload identity is
	// the token id (jti).
	MintRefresh(tokenID string, now time.Time, ttl time.Duration) (string, error)

	// ExtractTokenID returns the jti claim of a refresh token WITHOUT
	// verifying the signature. The ledger's stored hash is the
	// authenticity gate; this only recovers the lookup key.
	ExtractTokenID(raw string) (string, error)
}

type jwtManager struct {
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration
	secret    []byte
}

// NewJWTManager builds a TokenManager signing HS256 JWTs.
func NewJWTManager(cfg Config) (TokenManager, error) {
	if cfg.JWTSecret == "" {
		return nil, ErrConfig
	}
	return &jwtManager{
		issuer:    cfg.Issuer,
		ttl:       cfg.AccessTokenTTL,
		clockSkew: cfg.ClockSkew,
		secret:    []byte(cfg.JWTSecret),
	}, nil
}

type accessClaims struct {
	Kind string `json:"kind"`
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (m *jwtManager) MintAccess(p Principal, now time.Time) (string, time.Time, error) {
	exp := now.Add(m.ttl)

	claims := accessClaims{
		Kind: string(p.Kind),
		Role: string(p.Role),
		Name: p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (m *jwtManager) VerifyAccess(token string, now time.Time) (PrincipalClaims, error) {
	var claims accessClaims

	parsed, err := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(m.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	).ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return PrincipalClaims{}, ErrExpiredToken
		}
		return PrincipalClaims{}, ErrInvalidToken
	}
	if !parsed.Valid {
		return PrincipalClaims{}, ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return PrincipalClaims{}, ErrInvalidToken
	}
	kind, ok := identity.ParseKind(claims.Kind)
	if !ok {
		return PrincipalClaims{}, ErrInvalidToken
	}

	out := PrincipalClaims{
		Principal: Principal{
			ID:   id,
			Kind: kind,
			Role: identity.Role(claims.Role),
			Name: claims.Name,
		},
		Issuer: claims.Issuer,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (m *jwtManager) MintRefresh(tokenID string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    m.issuer,
		ID:        tokenID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *jwtManager) ExtractTokenID(raw string) (string, error) {
	var claims jwt.RegisteredClaims

	// Unverified parse: the jti is only a lookup key; authenticity is
	// established by comparing the token's hash against the ledger.
	_, _, err := jwt.NewParser().ParseUnverified(raw, &claims)
	if err != nil || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
