package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"lablink/cmd/identity"
	"lablink/cmd/internal/auth/oauth"
)

// fakeProvider counts calls so tests can assert the provider is never
// contacted when state validation fails.
type fakeProvider struct {
	tag oauth.Tag

	mu        sync.Mutex
	exchanges int
	fetches   int

	profile oauth.Profile
}

func (p *fakeProvider) Tag() oauth.Tag { return p.tag }

func (p *fakeProvider) AuthorizationURL(state string) string {
	return "https://consent.example.com/auth?state=" + state
}

func (p *fakeProvider) ExchangeCode(_ context.Context, code string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exchanges++
	if code == "" {
		return "", oauth.ErrProviderExchangeFailed
	}
	return "provider-access", nil
}

func (p *fakeProvider) FetchProfile(_ context.Context, _ string) (oauth.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetches++
	return p.profile, nil
}

func (p *fakeProvider) calls() (exchanges, fetches int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exchanges, p.fetches
}

type serviceFixture struct {
	svc      *Service
	store    *identity.MemoryStore
	ledger   *MemoryLedger
	states   *oauth.MemoryStateStore
	kakao    *fakeProvider
	google   *fakeProvider
	tokens   TokenManager
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	cfg := DefaultConfig()
	cfg.JWTSecret = "service-test-secret"

	tokens, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	f := &serviceFixture{
		store:  identity.NewMemoryStore(),
		ledger: NewMemoryLedger(),
		states: oauth.NewMemoryStateStore(5 * time.Minute),
		kakao: &fakeProvider{
			tag:     oauth.TagKakao,
			profile: oauth.Profile{ProviderID: "5551234", Nickname: "minji"},
		},
		google: &fakeProvider{
			tag:     oauth.TagGoogle,
			profile: oauth.Profile{ProviderID: "g-108273", Nickname: "Jane Roe", Email: "jane@example.com"},
		},
		tokens: tokens,
	}
	f.svc = NewService(
		cfg,
		tokens,
		f.ledger,
		f.store,
		oauth.NewRegistry(f.kakao, f.google),
		f.states,
		slog.New(slog.DiscardHandler),
		nil,
	)
	return f
}

func (f *serviceFixture) seedUser(t *testing.T) identity.User {
	t.Helper()
	email := "navid@example.com"
	return f.store.PutUser(identity.User{Email: &email, Nickname: "navid"}, "")
}

func TestService_IssueAndRefresh(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	u := f.seedUser(t)
	now := time.Now().UTC()

	issued, err := f.svc.IssueFor(ctx, now, UserPrincipal(u))
	if err != nil {
		t.Fatalf("IssueFor: %v", err)
	}
	if issued.AccessToken == "" || issued.RefreshToken == "" {
		t.Fatalf("empty tokens")
	}

	rotated, err := f.svc.Refresh(ctx, now.Add(time.Minute), issued.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rotated.RefreshToken == issued.RefreshToken {
		t.Fatalf("refresh token must rotate")
	}
	if rotated.Principal.ID != u.ID || rotated.Principal.Kind != identity.KindUser {
		t.Fatalf("unexpected principal: %+v", rotated.Principal)
	}

	claims, err := f.svc.VerifyAccess(rotated.AccessToken, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.ID != u.ID {
		t.Fatalf("claims subject: got %d", claims.ID)
	}
}

func TestService_Refresh_ReplayFails(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	u := f.seedUser(t)
	now := time.Now().UTC()

	issued, err := f.svc.IssueFor(ctx, now, UserPrincipal(u))
	if err != nil {
		t.Fatalf("IssueFor: %v", err)
	}

	if _, err := f.svc.Refresh(ctx, now.Add(time.Minute), issued.RefreshToken); err != nil {
		t.Fatalf("first Refresh: %v", err)
	}

	// Replaying the already-rotated token must fail closed.
	_, err = f.svc.Refresh(ctx, now.Add(2*time.Minute), issued.RefreshToken)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestService_Refresh_MissingToken(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Refresh(context.Background(), time.Now().UTC(), "   ")
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestService_Refresh_Expired(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	u := f.seedUser(t)
	now := time.Now().UTC()

	issued, err := f.svc.IssueFor(ctx, now, UserPrincipal(u))
	if err != nil {
		t.Fatalf("IssueFor: %v", err)
	}

	_, err = f.svc.Refresh(ctx, now.Add(DefaultConfig().RefreshTokenTTL+time.Hour), issued.RefreshToken)
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestService_Refresh_ForgedTokenSameID(t *testing.T) {
	// A token re-minted with the correct jti but a different body hashes
	// differently and must be rejected without leaking why.
	ctx := context.Background()
	f := newServiceFixture(t)
	u := f.seedUser(t)
	now := time.Now().UTC()

	issued, err := f.svc.IssueFor(ctx, now, UserPrincipal(u))
	if err != nil {
		t.Fatalf("IssueFor: %v", err)
	}

	jti, err := f.tokens.ExtractTokenID(issued.RefreshToken)
	if err != nil {
		t.Fatalf("ExtractTokenID: %v", err)
	}

	forged, err := f.tokens.MintRefresh(jti, now.Add(time.Second), time.Hour)
	if err != nil {
		t.Fatalf("MintRefresh: %v", err)
	}
	if forged == issued.RefreshToken {
		t.Fatalf("fixture error: forged token identical")
	}

	_, err = f.svc.Refresh(ctx, now.Add(time.Minute), forged)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	// The genuine token is still live; the forgery attempt did not
	// consume it.
	if _, err := f.svc.Refresh(ctx, now.Add(time.Minute), issued.RefreshToken); err != nil {
		t.Fatalf("genuine token must still rotate: %v", err)
	}
}

func TestService_Refresh_UnknownToken(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	now := time.Now().UTC()

	stray, err := f.tokens.MintRefresh("0d2fd02e-0b3c-4a2f-8b22-b0f5a7b0c001", now, time.Hour)
	if err != nil {
		t.Fatalf("MintRefresh: %v", err)
	}

	_, err = f.svc.Refresh(ctx, now, stray)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestService_Refresh_SubjectGone(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	u := f.seedUser(t)
	now := time.Now().UTC()

	issued, err := f.svc.IssueFor(ctx, now, UserPrincipal(u))
	if err != nil {
		t.Fatalf("IssueFor: %v", err)
	}

	f.store.DeleteUser(u.ID)

	_, err = f.svc.Refresh(ctx, now.Add(time.Minute), issued.RefreshToken)
	if !errors.Is(err, ErrSubjectNotFound) {
		t.Fatalf("expected ErrSubjectNotFound, got %v", err)
	}
}

func TestService_Logout_RevokesEverything(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	u := f.seedUser(t)
	now := time.Now().UTC()

	first, err := f.svc.IssueFor(ctx, now, UserPrincipal(u))
	if err != nil {
		t.Fatalf("IssueFor: %v", err)
	}
	second, err := f.svc.IssueFor(ctx, now, UserPrincipal(u))
	if err != nil {
		t.Fatalf("IssueFor: %v", err)
	}

	if err := f.svc.Logout(ctx, now, u.ID, identity.KindUser); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	for _, raw := range []string{first.RefreshToken, second.RefreshToken} {
		if _, err := f.svc.Refresh(ctx, now.Add(time.Minute), raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken after logout, got %v", err)
		}
	}
}

func TestService_Logout_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	u := f.seedUser(t)
	now := time.Now().UTC()

	if _, err := f.svc.IssueFor(ctx, now, UserPrincipal(u)); err != nil {
		t.Fatalf("IssueFor: %v", err)
	}
	if err := f.svc.Logout(ctx, now, u.ID, identity.KindUser); err != nil {
		t.Fatalf("first Logout: %v", err)
	}
	if err := f.svc.Logout(ctx, now.Add(time.Minute), u.ID, identity.KindUser); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
}

func TestService_IssueFor_Company(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	now := time.Now().UTC()

	c := f.store.PutCompany(identity.Company{Email: "lab@corp.com", CompanyName: "LabCorp"}, "")

	issued, err := f.svc.IssueFor(ctx, now, CompanyPrincipal(c))
	if err != nil {
		t.Fatalf("IssueFor: %v", err)
	}

	rotated, err := f.svc.Refresh(ctx, now.Add(time.Minute), issued.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rotated.Principal.Kind != identity.KindCompany || rotated.Principal.ID != c.ID {
		t.Fatalf("unexpected principal: %+v", rotated.Principal)
	}
	if rotated.Principal.Name != "LabCorp" {
		t.Fatalf("name: got %q", rotated.Principal.Name)
	}
}

func TestService_BeginOAuth(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	url, err := f.svc.BeginOAuth(ctx, time.Now().UTC(), "kakao")
	if err != nil {
		t.Fatalf("BeginOAuth: %v", err)
	}
	if url == "" {
		t.Fatalf("empty consent url")
	}

	if _, err := f.svc.BeginOAuth(ctx, time.Now().UTC(), "naver"); !errors.Is(err, oauth.ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestService_CompleteOAuth_BadStateNeverCallsProvider(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	now := time.Now().UTC()

	_, err := f.svc.CompleteOAuth(ctx, now, "kakao", "the-code", "never-issued-state")
	if !errors.Is(err, ErrInvalidOAuthState) {
		t.Fatalf("expected ErrInvalidOAuthState, got %v", err)
	}

	if ex, fe := f.kakao.calls(); ex != 0 || fe != 0 {
		t.Fatalf("provider contacted on bad state: exchanges=%d fetches=%d", ex, fe)
	}
}

func TestService_CompleteOAuth_StateConsumeOnce(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	now := time.Now().UTC()

	state, err := f.states.Begin(ctx, now, oauth.TagKakao)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if _, err := f.svc.CompleteOAuth(ctx, now, "kakao", "the-code", state); err != nil {
		t.Fatalf("CompleteOAuth: %v", err)
	}

	_, err = f.svc.CompleteOAuth(ctx, now, "kakao", "the-code", state)
	if !errors.Is(err, ErrInvalidOAuthState) {
		t.Fatalf("replayed state must fail, got %v", err)
	}
}

func TestService_CompleteOAuth_WrongProviderStateBurns(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	now := time.Now().UTC()

	state, err := f.states.Begin(ctx, now, oauth.TagGoogle)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	// Presenting a Google-bound state to the Kakao flow fails and burns
	// the nonce.
	if _, err := f.svc.CompleteOAuth(ctx, now, "kakao", "c", state); !errors.Is(err, ErrInvalidOAuthState) {
		t.Fatalf("expected ErrInvalidOAuthState, got %v", err)
	}
	if _, err := f.svc.CompleteOAuth(ctx, now, "google", "c", state); !errors.Is(err, ErrInvalidOAuthState) {
		t.Fatalf("burned state must stay invalid, got %v", err)
	}
}

func TestService_CompleteOAuth_KakaoFirstLoginCreatesUser(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	now := time.Now().UTC()

	issued, err := f.svc.CompleteOAuth(ctx, now, "kakao", "the-code", "")
	if err != nil {
		t.Fatalf("CompleteOAuth: %v", err)
	}
	if issued.Principal.Kind != identity.KindUser {
		t.Fatalf("kind: got %q", issued.Principal.Kind)
	}

	u, err := f.store.GetUserByKakaoID(ctx, 5551234)
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if u.Nickname != "minji" {
		t.Fatalf("nickname: got %q", u.Nickname)
	}

	// Second login resolves to the same account.
	again, err := f.svc.CompleteOAuth(ctx, now, "kakao", "the-code", "")
	if err != nil {
		t.Fatalf("second CompleteOAuth: %v", err)
	}
	if again.Principal.ID != u.ID {
		t.Fatalf("expected same user, got %d and %d", u.ID, again.Principal.ID)
	}
}

func TestService_CompleteOAuth_GoogleLinksOntoPrimaryEmail(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	now := time.Now().UTC()

	email := "jane@example.com"
	existing := f.store.PutUser(identity.User{Email: &email, Nickname: "jane"}, "some-phc-hash")

	issued, err := f.svc.CompleteOAuth(ctx, now, "google", "the-code", "")
	if err != nil {
		t.Fatalf("CompleteOAuth: %v", err)
	}
	if issued.Principal.ID != existing.ID {
		t.Fatalf("expected link onto existing user %d, got %d", existing.ID, issued.Principal.ID)
	}

	u, err := f.store.GetUserByGoogleEmail(ctx, "jane@example.com")
	if err != nil || u.ID != existing.ID {
		t.Fatalf("link not recorded: %+v %v", u, err)
	}
}

func TestService_CompleteOAuth_GoogleCreatesUserWithClosedLocalLogin(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	now := time.Now().UTC()

	issued, err := f.svc.CompleteOAuth(ctx, now, "google", "the-code", "")
	if err != nil {
		t.Fatalf("CompleteOAuth: %v", err)
	}

	u, err := f.store.GetUserByGoogleEmail(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if issued.Principal.ID != u.ID {
		t.Fatalf("principal mismatch")
	}

	// The throwaway credential is random; no guessable password opens
	// the local-login path.
	auth, err := f.store.GetUserAuthByEmail(ctx, "jane@example.com")
	if !identity.IsNotFound(err) && err == nil {
		if ok, _ := identity.VerifyPassword("password", auth.PasswordHash); ok {
			t.Fatalf("throwaway credential must not verify a common password")
		}
	}
}
