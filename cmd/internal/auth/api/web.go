package authapi

import (
	"net/http"
	"strings"
	"time"
)

// setRefreshCookie attaches the rotated refresh token. HttpOnly keeps it
// away from scripts; Max-Age tracks the refresh TTL.
func (h *Handler) setRefreshCookie(w http.ResponseWriter, value string, ttl time.Duration) {
	if h == nil || w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.RefreshCookieName,
		Value:    value,
		Path:     h.cfg.CookiePath,
		Domain:   h.cfg.CookieDomain,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: h.cfg.CookieSameSite,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	if h == nil || w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.RefreshCookieName,
		Value:    "",
		Path:     h.cfg.CookiePath,
		Domain:   h.cfg.CookieDomain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: h.cfg.CookieSameSite,
	})
}

func (h *Handler) refreshTokenFromCookie(r *http.Request) (string, bool) {
	if h == nil || r == nil {
		return "", false
	}
	c, err := r.Cookie(h.cfg.RefreshCookieName)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return "", false
	}
	return v, true
}

// setAccessHeader publishes the access token on the configured response
// header. Logout calls it with an empty value to instruct clients to drop
// the credential.
func (h *Handler) setAccessHeader(w http.ResponseWriter, token string) {
	if h == nil || w == nil {
		return
	}
	w.Header().Set(h.cfg.AccessTokenHeader, token)
}
