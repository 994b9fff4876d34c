package session

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"lablink/cmd/identity"
	"lablink/cmd/internal/auth/oauth"
	"lablink/cmd/security/token"
)

// Service implements the high-level session operations for lablink.
//
// It issues credential pairs, rotates refresh tokens with one-shot
// semantics, revokes sessions, and drives federated login end to end.
type Service struct {
	cfg       Config
	tokens    TokenManager
	ledger    Ledger
	store     identity.Store
	providers *oauth.Registry
	states    oauth.StateStore

	log     *slog.Logger
	metrics *Metrics
}

// Issued is the result of issuing or rotating a session.
type Issued struct {
	Principal Principal

	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

// NewService constructs a Service. metrics may be nil.
func NewService(
	cfg Config,
	tokens TokenManager,
	ledger Ledger,
	store identity.Store,
	providers *oauth.Registry,
	states oauth.StateStore,
	log *slog.Logger,
	metrics *Metrics,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		cfg:       cfg,
		tokens:    tokens,
		ledger:    ledger,
		store:     store,
		providers: providers,
		states:    states,
		log:       log,
		metrics:   metrics,
	}
}

// newRefreshRecord mints a refresh token for a fresh jti and builds the
// ledger record holding its hash. The raw token is returned to the caller
// and never stored.
func (s *Service) newRefreshRecord(now time.Time, ownerID int64, ownerKind identity.Kind) (raw string, rec Record, err error) {
	jti := uuid.NewString()

	raw, err = s.tokens.MintRefresh(jti, now, s.cfg.RefreshTokenTTL)
	if err != nil {
		return "", Record{}, err
	}

	rec = Record{
		ID:        ulid.Make().String(),
		TokenID:   jti,
		TokenHash: token.HashRefreshTokenHex(raw),
		OwnerID:   ownerID,
		OwnerKind: ownerKind,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
	}
	return raw, rec, nil
}

// IssueFor mints a fresh credential pair for an authenticated principal.
// Password verification happens at the API boundary; by the time this runs
// the caller has already proven who it is.
func (s *Service) IssueFor(ctx context.Context, now time.Time, p Principal) (Issued, error) {
	accessToken, accessExp, err := s.tokens.MintAccess(p, now)
	if err != nil {
		return Issued{}, err
	}

	refreshRaw, rec, err := s.newRefreshRecord(now, p.ID, p.Kind)
	if err != nil {
		return Issued{}, err
	}
	if err := s.ledger.Insert(ctx, rec); err != nil {
		return Issued{}, err
	}

	s.metrics.incIssued()
	s.log.Info("auth.session.issue", "kind", string(p.Kind), "subject", p.ID)

	return Issued{
		Principal:    p,
		AccessToken:  accessToken,
		AccessExp:    accessExp,
		RefreshToken: refreshRaw,
		RefreshExp:   rec.ExpiresAt,
	}, nil
}

// Refresh rotates a refresh token and mints a fresh credential pair for
// its owner.
//
// The presented token's jti is extracted without signature verification;
// authenticity is established by the ledger comparing the token's hash
// against the stored one. Any ledger rejection surfaces as ErrInvalidToken
// or ErrExpiredToken with no further detail.
func (s *Service) Refresh(ctx context.Context, now time.Time, raw string) (Issued, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Issued{}, ErrMissingToken
	}
	// Bound pathological inputs before hashing.
	if len(raw) > 4096 {
		return Issued{}, ErrInvalidToken
	}

	jti, err := s.tokens.ExtractTokenID(raw)
	if err != nil {
		s.metrics.incRejected()
		return Issued{}, ErrInvalidToken
	}

	nextRaw, next, err := s.newRefreshRecord(now, 0, "")
	if err != nil {
		return Issued{}, err
	}

	old, err := s.ledger.Rotate(ctx, now, jti, token.HashRefreshTokenHex(raw), next)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrExpiredToken) {
			s.metrics.incRejected()
			s.log.Warn("auth.refresh.fail", "reason", err.Error())
		}
		return Issued{}, err
	}

	p, err := s.lookupPrincipal(ctx, old.OwnerID, old.OwnerKind)
	if err != nil {
		return Issued{}, err
	}

	accessToken, accessExp, err := s.tokens.MintAccess(p, now)
	if err != nil {
		return Issued{}, err
	}

	s.metrics.incRotated()
	s.log.Info("auth.refresh.ok", "kind", string(p.Kind), "subject", p.ID)

	return Issued{
		Principal:    p,
		AccessToken:  accessToken,
		AccessExp:    accessExp,
		RefreshToken: nextRaw,
		RefreshExp:   next.ExpiresAt,
	}, nil
}

func (s *Service) lookupPrincipal(ctx context.Context, id int64, kind identity.Kind) (Principal, error) {
	switch kind {
	case identity.KindUser:
		u, err := s.store.GetUserByID(ctx, id)
		if identity.IsNotFound(err) {
			return Principal{}, ErrSubjectNotFound
		}
		if err != nil {
			return Principal{}, err
		}
		return UserPrincipal(u), nil
	case identity.KindCompany:
		c, err := s.store.GetCompanyByID(ctx, id)
		if identity.IsNotFound(err) {
			return Principal{}, ErrSubjectNotFound
		}
		if err != nil {
			return Principal{}, err
		}
		return CompanyPrincipal(c), nil
	default:
		return Principal{}, ErrInvalidToken
	}
}

// Logout revokes every refresh token of one principal.
func (s *Service) Logout(ctx context.Context, now time.Time, ownerID int64, ownerKind identity.Kind) error {
	if err := s.ledger.RevokeAll(ctx, now, ownerID, ownerKind); err != nil {
		return err
	}
	s.log.Info("auth.session.logout", "kind", string(ownerKind), "subject", ownerID)
	return nil
}

// VerifyAccess verifies an access token. Exposed for middleware and the
// logout handler.
func (s *Service) VerifyAccess(tok string, now time.Time) (PrincipalClaims, error) {
	return s.tokens.VerifyAccess(tok, now)
}

// BeginOAuth mints an anti-replay state nonce for a provider and returns
// the consent URL the client should be sent to.
func (s *Service) BeginOAuth(ctx context.Context, now time.Time, providerTag string) (authURL string, err error) {
	p, err := s.providers.Lookup(providerTag)
	if err != nil {
		return "", err
	}

	state, err := s.states.Begin(ctx, now, p.Tag())
	if err != nil {
		return "", err
	}

	s.log.Info("auth.oauth.begin", "provider", string(p.Tag()))
	return p.AuthorizationURL(state), nil
}

// CompleteOAuth finishes a federated login: validates the state nonce,
// exchanges the code, fetches the profile, resolves or creates the local
// user, and issues a credential pair.
//
// An empty state selects the legacy no-state flow, which is kept for old
// clients and always logged as such. When a state is present it is
// consumed BEFORE any provider call; a replayed or forged state never
// reaches the provider.
func (s *Service) CompleteOAuth(ctx context.Context, now time.Time, providerTag, code, state string) (Issued, error) {
	p, err := s.providers.Lookup(providerTag)
	if err != nil {
		return Issued{}, err
	}

	state = strings.TrimSpace(state)
	if state == "" {
		s.log.Warn("auth.oauth.legacy", "provider", string(p.Tag()), "legacy_mode", true)
	} else {
		ok, err := s.states.Consume(ctx, now, state, p.Tag())
		if err != nil {
			return Issued{}, err
		}
		if !ok {
			s.log.Warn("auth.oauth.state_rejected", "provider", string(p.Tag()))
			return Issued{}, ErrInvalidOAuthState
		}
	}

	providerToken, err := p.ExchangeCode(ctx, code)
	if err != nil {
		return Issued{}, err
	}

	profile, err := p.FetchProfile(ctx, providerToken)
	if err != nil {
		return Issued{}, err
	}

	user, err := s.resolveFederatedUser(ctx, now, p.Tag(), profile)
	if err != nil {
		return Issued{}, err
	}

	issued, err := s.IssueFor(ctx, now, UserPrincipal(user))
	if err != nil {
		return Issued{}, err
	}

	s.metrics.incOAuthLogin(string(p.Tag()))
	s.log.Info("auth.oauth.ok", "provider", string(p.Tag()), "subject", user.ID)
	return issued, nil
}

// resolveFederatedUser maps a provider profile onto a local user,
// creating or linking one on first login.
func (s *Service) resolveFederatedUser(ctx context.Context, now time.Time, tag oauth.Tag, profile oauth.Profile) (identity.User, error) {
	switch tag {
	case oauth.TagKakao:
		return s.resolveKakaoUser(ctx, now, profile)
	case oauth.TagGoogle:
		return s.resolveGoogleUser(ctx, now, profile)
	default:
		return identity.User{}, oauth.ErrUnsupportedProvider
	}
}

func (s *Service) resolveKakaoUser(ctx context.Context, now time.Time, profile oauth.Profile) (identity.User, error) {
	kakaoID, err := strconv.ParseInt(profile.ProviderID, 10, 64)
	if err != nil || kakaoID <= 0 {
		return identity.User{}, oauth.ErrProviderProfileFailed
	}

	u, err := s.store.GetUserByKakaoID(ctx, kakaoID)
	if err == nil {
		return u, nil
	}
	if !identity.IsNotFound(err) {
		return identity.User{}, err
	}

	in := identity.CreateKakaoUserInput{
		KakaoID:  kakaoID,
		Nickname: profile.Nickname,
		Now:      now,
	}
	if profile.Email != "" {
		email := profile.Email
		in.Email = &email
	}

	u, err = s.store.CreateKakaoUser(ctx, in)
	if err != nil {
		return identity.User{}, err
	}
	s.log.Info("auth.oauth.signup", "provider", "kakao", "subject", u.ID)
	return u, nil
}

// resolveGoogleUser resolves in three steps: already linked, linkable via
// the primary email, or brand new. New accounts get a random throwaway
// password so the local-login path stays closed until the user sets one.
func (s *Service) resolveGoogleUser(ctx context.Context, now time.Time, profile oauth.Profile) (identity.User, error) {
	u, err := s.store.GetUserByGoogleEmail(ctx, profile.Email)
	if err == nil {
		return u, nil
	}
	if !identity.IsNotFound(err) {
		return identity.User{}, err
	}

	existing, err := s.store.GetUserByEmail(ctx, profile.Email)
	if err == nil {
		linked, err := s.store.LinkGoogleEmail(ctx, existing.ID, profile.Email)
		if err != nil {
			return identity.User{}, err
		}
		s.log.Info("auth.oauth.link", "provider", "google", "subject", linked.ID)
		return linked, nil
	}
	if !identity.IsNotFound(err) {
		return identity.User{}, err
	}

	throwaway, err := identity.NewThrowawayPassword()
	if err != nil {
		return identity.User{}, err
	}
	hash, err := identity.HashPassword(throwaway)
	if err != nil {
		return identity.User{}, err
	}

	u, err = s.store.CreateGoogleUser(ctx, identity.CreateGoogleUserInput{
		GoogleEmail:  profile.Email,
		Nickname:     profile.Nickname,
		PasswordHash: hash,
		Now:          now,
	})
	if err != nil {
		return identity.User{}, err
	}
	s.log.Info("auth.oauth.signup", "provider", "google", "subject", u.ID)
	return u, nil
}
