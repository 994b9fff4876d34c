package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"lablink/cmd/identity"
	"lablink/cmd/internal/auth/oauth"
	"lablink/cmd/internal/auth/session"
)

// Handler wires HTTP auth endpoints to the identity and session services.
type Handler struct {
	log *slog.Logger
	cfg Config

	store    identity.Store
	sessions *session.Service
	sessCfg  session.Config

	dummyHash string
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, sessCfg session.Config, sessions *session.Service, store identity.Store) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if sessions == nil {
		return nil, errors.New("authapi: nil session service")
	}
	if store == nil {
		return nil, errors.New("authapi: nil identity store")
	}

	h := &Handler{
		log:      log,
		cfg:      cfg,
		store:    store,
		sessions: sessions,
		sessCfg:  sessCfg,
	}

	// Dummy hash for timing-resistant login checks.
	if hash, err := identity.HashPassword("dummy-password-for-timing-only"); err == nil {
		h.dummyHash = hash
	}

	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("POST /auth/refresh", h.handleRefresh)
	mux.HandleFunc("POST /auth/logout", h.handleLogout)
	mux.HandleFunc("GET /auth/oauth/{provider}/authorize", h.handleOAuthAuthorize)
	mux.HandleFunc("POST /auth/oauth/{provider}", h.handleOAuthComplete)

	// Legacy no-state callbacks, kept for old clients.
	mux.HandleFunc("GET /users/kakao/login", h.handleLegacyKakao)
	mux.HandleFunc("GET /users/google/login", h.handleLegacyGoogle)
}

// ---- handlers ----

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	kind := identity.KindUser
	if strings.TrimSpace(req.Kind) != "" {
		parsed, ok := identity.ParseKind(req.Kind)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_request", "kind must be user or company")
			return
		}
		kind = parsed
	}

	ctx := r.Context()
	now := time.Now().UTC()

	var (
		principal session.Principal
		pwHash    string
	)
	switch kind {
	case identity.KindUser:
		auth, err := h.store.GetUserAuthByEmail(ctx, email)
		if err != nil {
			h.failLogin(w, err, req.Password)
			return
		}
		principal, pwHash = session.UserPrincipal(auth.User), auth.PasswordHash
	case identity.KindCompany:
		auth, err := h.store.GetCompanyAuthByEmail(ctx, email)
		if err != nil {
			h.failLogin(w, err, req.Password)
			return
		}
		principal, pwHash = session.CompanyPrincipal(auth.Company), auth.PasswordHash
	}

	okPw, err := identity.VerifyPassword(req.Password, pwHash)
	if err != nil || !okPw {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		return
	}

	issued, err := h.sessions.IssueFor(ctx, now, principal)
	if err != nil {
		h.log.Error("auth.login.issue.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.setRefreshCookie(w, issued.RefreshToken, h.sessCfg.RefreshTokenTTL)
	h.setAccessHeader(w, issued.AccessToken)
	writeJSON(w, http.StatusOK, loginResponse{
		Principal: toPrincipalResponse(issued.Principal),
		Session:   toSessionResponse(issued),
	})
}

// failLogin answers an unknown subject exactly like a bad password. The
// dummy verify keeps response timing in the same range as a real check.
func (h *Handler) failLogin(w http.ResponseWriter, err error, password string) {
	if !identity.IsNotFound(err) {
		h.log.Error("auth.login.lookup.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	if h.dummyHash != "" {
		_, _ = identity.VerifyPassword(password, h.dummyHash)
	}
	writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, _ := h.refreshTokenFromCookie(r)
	if refreshToken == "" && r.ContentLength != 0 {
		var req refreshRequest
		if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
			return
		}
		refreshToken = strings.TrimSpace(req.RefreshToken)
	}

	issued, err := h.sessions.Refresh(r.Context(), time.Now().UTC(), refreshToken)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	h.setRefreshCookie(w, issued.RefreshToken, h.sessCfg.RefreshTokenTTL)
	h.setAccessHeader(w, issued.AccessToken)
	writeJSON(w, http.StatusOK, loginResponse{
		Principal: toPrincipalResponse(issued.Principal),
		Session:   toSessionResponse(issued),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	tok := bearerToken(r)
	if tok == "" {
		writeError(w, http.StatusUnauthorized, "missing_token", "missing bearer token")
		return
	}

	now := time.Now().UTC()
	claims, err := h.sessions.VerifyAccess(tok, now)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	// The kind tag decides which principal's tokens go; an unrecognized
	// tag is treated as a forged token.
	switch claims.Kind {
	case identity.KindUser, identity.KindCompany:
	default:
		h.writeAuthError(w, session.ErrInvalidToken)
		return
	}

	if err := h.sessions.Logout(r.Context(), now, claims.ID, claims.Kind); err != nil {
		h.log.Error("auth.logout.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.clearRefreshCookie(w)
	h.setAccessHeader(w, "")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleOAuthAuthorize(w http.ResponseWriter, r *http.Request) {
	url, err := h.sessions.BeginOAuth(r.Context(), time.Now().UTC(), r.PathValue("provider"))
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authorizeResponse{AuthorizationURL: url})
}

func (h *Handler) handleOAuthComplete(w http.ResponseWriter, r *http.Request) {
	var req oauthCompleteRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	h.completeOAuth(w, r, r.PathValue("provider"), req.Code, req.State)
}

// Legacy callbacks receive the provider redirect directly; there is no
// state parameter in that flow.
func (h *Handler) handleLegacyKakao(w http.ResponseWriter, r *http.Request) {
	h.handleLegacyCallback(w, r, string(oauth.TagKakao))
}

func (h *Handler) handleLegacyGoogle(w http.ResponseWriter, r *http.Request) {
	h.handleLegacyCallback(w, r, string(oauth.TagGoogle))
}

func (h *Handler) handleLegacyCallback(w http.ResponseWriter, r *http.Request, provider string) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}
	h.completeOAuth(w, r, provider, code, "")
}

func (h *Handler) completeOAuth(w http.ResponseWriter, r *http.Request, provider, code, state string) {
	issued, err := h.sessions.CompleteOAuth(r.Context(), time.Now().UTC(), provider, code, state)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	h.setRefreshCookie(w, issued.RefreshToken, h.sessCfg.RefreshTokenTTL)
	h.setAccessHeader(w, issued.AccessToken)
	writeJSON(w, http.StatusOK, loginResponse{
		Principal: toPrincipalResponse(issued.Principal),
		Session:   toSessionResponse(issued),
	})
}

// writeAuthError maps service errors onto the wire. Unexpected errors log
// their detail server-side and surface as an opaque 500.
func (h *Handler) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrMissingToken):
		writeError(w, http.StatusUnauthorized, "missing_token", "refresh token is required")
	case errors.Is(err, session.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
	case errors.Is(err, session.ErrExpiredToken):
		writeError(w, http.StatusUnauthorized, "expired_token", "token expired")
	case errors.Is(err, session.ErrInvalidOAuthState):
		writeError(w, http.StatusUnauthorized, "invalid_oauth_state", "invalid or expired oauth state")
	case errors.Is(err, session.ErrSubjectNotFound):
		writeError(w, http.StatusNotFound, "subject_not_found", "subject no longer exists")
	case errors.Is(err, oauth.ErrUnsupportedProvider):
		writeError(w, http.StatusBadRequest, "unsupported_provider", "unsupported oauth provider")
	case errors.Is(err, oauth.ErrProviderExchangeFailed):
		writeError(w, http.StatusBadGateway, "oauth_exchange_failed", "provider code exchange failed")
	case errors.Is(err, oauth.ErrProviderProfileFailed):
		writeError(w, http.StatusBadGateway, "oauth_profile_failed", "provider profile fetch failed")
	default:
		h.log.Error("auth.api.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}
