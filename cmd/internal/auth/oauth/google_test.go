package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func testGoogle(t *testing.T, token, userInfo *httptest.Server) *Google {
	t.Helper()
	cfg := DefaultConfig()
	cfg.GoogleClientID = "google-client"
	cfg.GoogleClientSecret = "google-secret"
	cfg.GoogleRedirectURI = "https://app.example.com/users/google/login"
	g := NewGoogle(cfg)
	if token != nil {
		g.TokenURL = token.URL
	}
	if userInfo != nil {
		g.UserInfoURL = userInfo.URL
	}
	return g
}

func TestGoogle_AuthorizationURL(t *testing.T) {
	g := testGoogle(t, nil, nil)

	u, err := url.Parse(g.AuthorizationURL("nonce-2"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("scope") != "profile email" {
		t.Fatalf("scope: got %q", q.Get("scope"))
	}
	if q.Get("state") != "nonce-2" {
		t.Fatalf("state: got %q", q.Get("state"))
	}
}

func TestGoogle_ExchangeCode_SendsSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("client_secret") != "google-secret" {
			t.Errorf("client_secret: got %q", r.PostForm.Get("client_secret"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"google-access"}`))
	}))
	defer srv.Close()

	g := testGoogle(t, srv, nil)
	tok, err := g.ExchangeCode(context.Background(), "the-code")
	if err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}
	if tok != "google-access" {
		t.Fatalf("token: got %q", tok)
	}
}

func TestGoogle_ExchangeCode_EmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	g := testGoogle(t, srv, nil)
	_, err := g.ExchangeCode(context.Background(), "c")
	if !errors.Is(err, ErrProviderExchangeFailed) {
		t.Fatalf("expected ErrProviderExchangeFailed, got %v", err)
	}
}

func TestGoogle_FetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method: got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"108273","name":"Jane Roe","email":"jane@example.com"}`))
	}))
	defer srv.Close()

	g := testGoogle(t, nil, srv)
	p, err := g.FetchProfile(context.Background(), "google-access")
	if err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	if p.ProviderID != "108273" || p.Nickname != "Jane Roe" || p.Email != "jane@example.com" {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestGoogle_FetchProfile_MissingEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"108273","name":"Jane Roe"}`))
	}))
	defer srv.Close()

	g := testGoogle(t, nil, srv)
	_, err := g.FetchProfile(context.Background(), "t")
	if !errors.Is(err, ErrProviderProfileFailed) {
		t.Fatalf("expected ErrProviderProfileFailed, got %v", err)
	}
}

func TestRegistry_Lookup(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KakaoClientID = "k"
	reg := NewRegistry(NewKakao(cfg))

	if _, err := reg.Lookup("kakao"); err != nil {
		t.Fatalf("Lookup kakao: %v", err)
	}
	if _, err := reg.Lookup("KAKAO "); err != nil {
		t.Fatalf("Lookup should normalize: %v", err)
	}
	if _, err := reg.Lookup("google"); !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
	if _, err := reg.Lookup("naver"); !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}
