package authapi

import "time"

type loginRequest struct {
	// Kind selects the subject table: "user" (default) or "company".
	Kind     string `json:"kind"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type oauthCompleteRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

type principalResponse struct {
	ID   int64  `json:"id"`
	Kind string `json:"kind"`
	Role string `json:"role"`
	Name string `json:"name"`
}

type sessionResponse struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type loginResponse struct {
	Principal principalResponse `json:"principal"`
	Session   sessionResponse   `json:"session"`
}

type authorizeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}
