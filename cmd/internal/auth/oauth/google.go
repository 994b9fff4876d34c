package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Google is the Google login gateway.
type Google struct {
	// TokenURL, UserInfoURL, AuthorizeURL default to Google production
	// and are overridable for tests.
	TokenURL     string
	UserInfoURL  string
	AuthorizeURL string

	// Scope requested at consent time.
	Scope string

	clientID     string
	clientSecret string
	redirectURI  string
	client       *http.Client
}

// NewGoogle builds the Google gateway from config.
func NewGoogle(cfg Config) *Google {
	return &Google{
		TokenURL:     "https://oauth2.googleapis.com/token",
		UserInfoURL:  "https://www.googleapis.com/oauth2/v3/userinfo",
		AuthorizeURL: "https://accounts.google.com/o/oauth2/v2/auth",
		Scope:        "profile email",
		clientID:     cfg.GoogleClientID,
		clientSecret: cfg.GoogleClientSecret,
		redirectURI:  cfg.GoogleRedirectURI,
		client:       newHTTPClient(cfg.HTTPTimeout),
	}
}

func (g *Google) Tag() Tag { return TagGoogle }

func (g *Google) AuthorizationURL(state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", g.clientID)
	q.Set("redirect_uri", g.redirectURI)
	q.Set("scope", g.Scope)
	if state != "" {
		q.Set("state", state)
	}
	return g.AuthorizeURL + "?" + q.Encode()
}

func (g *Google) ExchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", g.clientID)
	form.Set("client_secret", g.clientSecret)
	form.Set("redirect_uri", g.redirectURI)
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", ErrProviderExchangeFailed
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", ErrProviderExchangeFailed
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", ErrProviderExchangeFailed
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.AccessToken == "" {
		return "", ErrProviderExchangeFailed
	}
	return body.AccessToken, nil
}

func (g *Google) FetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.UserInfoURL, nil)
	if err != nil {
		return Profile{}, ErrProviderProfileFailed
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return Profile{}, ErrProviderProfileFailed
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Profile{}, ErrProviderProfileFailed
	}

	var body struct {
		Sub   string `json:"sub"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Profile{}, ErrProviderProfileFailed
	}
	if body.Sub == "" || body.Email == "" {
		return Profile{}, ErrProviderProfileFailed
	}

	return Profile{
		ProviderID: body.Sub,
		Nickname:   body.Name,
		Email:      body.Email,
	}, nil
}
