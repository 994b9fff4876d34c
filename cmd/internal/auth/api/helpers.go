package authapi

import (
	"net/http"
	"strings"

	"lablink/cmd/internal/auth/session"
)

func toPrincipalResponse(p session.Principal) principalResponse {
	return principalResponse{
		ID:   p.ID,
		Kind: string(p.Kind),
		Role: string(p.Role),
		Name: p.Name,
	}
}

func toSessionResponse(issued session.Issued) sessionResponse {
	return sessionResponse{
		AccessToken:      issued.AccessToken,
		AccessExpiresAt:  issued.AccessExp,
		RefreshExpiresAt: issued.RefreshExp,
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
