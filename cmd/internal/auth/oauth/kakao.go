package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Kakao is the Kakao login gateway.
//
// Kakao's token endpoint takes no client secret; the app is identified by
// client id and registered redirect URI alone.
type Kakao struct {
	// TokenURL, UserInfoURL, AuthorizeURL default to Kakao production and
	// are overridable for tests.
	TokenURL     string
	UserInfoURL  string
	AuthorizeURL string

	clientID    string
	redirectURI string
	client      *http.Client
}

// NewKakao builds the Kakao gateway from config.
func NewKakao(cfg Config) *Kakao {
	return &Kakao{
		TokenURL:     "https://kauth.kakao.com/oauth/token",
		UserInfoURL:  "https://kapi.kakao.com/v2/user/me",
		AuthorizeURL: "https://kauth.kakao.com/oauth/authorize",
		clientID:     cfg.KakaoClientID,
		redirectURI:  cfg.KakaoRedirectURI,
		client:       newHTTPClient(cfg.HTTPTimeout),
	}
}

func (k *Kakao) Tag() Tag { return TagKakao }

func (k *Kakao) AuthorizationURL(state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", k.clientID)
	q.Set("redirect_uri", k.redirectURI)
	if state != "" {
		q.Set("state", state)
	}
	return k.AuthorizeURL + "?" + q.Encode()
}

func (k *Kakao) ExchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", k.clientID)
	form.Set("redirect_uri", k.redirectURI)
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", ErrProviderExchangeFailed
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := k.client.Do(req)
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

func (k *Kakao) FetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	// Kakao's user endpoint is a POST.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.UserInfoURL, nil)
	if err != nil {
		return Profile{}, ErrProviderProfileFailed
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := k.client.Do(req)
	if err != nil {
		return Profile{}, ErrProviderProfileFailed
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Profile{}, ErrProviderProfileFailed
	}

	var body struct {
		ID         int64 `json:"id"`
		Properties struct {
			Nickname string `json:"nickname"`
		} `json:"properties"`
		KakaoAccount struct {
			Email string `json:"email"`
		} `json:"kakao_account"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Profile{}, ErrProviderProfileFailed
	}
	if body.ID == 0 || body.Properties.Nickname == "" {
		return Profile{}, ErrProviderProfileFailed
	}

	return Profile{
		ProviderID: strconv.FormatInt(body.ID, 10),
		Nickname:   body.Properties.Nickname,
		Email:      body.KakaoAccount.Email, // optional
	}, nil
}
