package oauth

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Tag identifies a federated login provider.
type Tag string

const (
	// TagKakao is the Kakao provider.
	TagKakao Tag = "kakao"
	// TagGoogle is the Google provider.
	TagGoogle Tag = "google"
)

// ParseTag normalizes and validates a provider tag from user input.
func ParseTag(s string) (Tag, bool) {
	switch Tag(strings.ToLower(strings.TrimSpace(s))) {
	case TagKakao:
		return TagKakao, true
	case TagGoogle:
		return TagGoogle, true
	default:
		return "", false
	}
}

// Profile is the provider-agnostic identity a gateway returns.
type Profile struct {
	// ProviderID is the provider-scoped stable subject: Kakao's numeric
	// id in decimal, Google's "sub".
	ProviderID string

	// Nickname is the display name reported by the provider.
	Nickname string

	// Email is the account email. Optional for Kakao.
	Email string
}

// Provider is one federated login gateway.
type Provider interface {
	// Tag returns the provider's stable tag.
	Tag() Tag

	// AuthorizationURL builds the consent URL the client is redirected
	// to. An empty state is omitted from the URL (legacy flow).
	AuthorizationURL(state string) string

	// ExchangeCode swaps an authorization code for a provider access
	// token.
	ExchangeCode(ctx context.Context, code string) (accessToken string, err error)

	// FetchProfile loads the subject's profile with a provider access
	// token.
	FetchProfile(ctx context.Context, accessToken string) (Profile, error)
}

// Registry holds the providers configured at startup.
type Registry struct {
	providers map[Tag]Provider
}

// NewRegistry builds a Registry from the given providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[Tag]Provider, len(providers))}
	for _, p := range providers {
		if p == nil {
			continue
		}
		r.providers[p.Tag()] = p
	}
	return r
}

// Lookup resolves a raw provider tag.
func (r *Registry) Lookup(raw string) (Provider, error) {
	tag, ok := ParseTag(raw)
	if !ok {
		return nil, ErrUnsupportedProvider
	}
	p, ok := r.providers[tag]
	if !ok {
		return nil, ErrUnsupportedProvider
	}
	return p, nil
}

// Tags lists the registered provider tags.
func (r *Registry) Tags() []Tag {
	out := make([]Tag, 0, len(r.providers))
	for tag := range r.providers {
		out = append(out, tag)
	}
	return out
}

// newHTTPClient returns the bounded client providers share. No retries;
// failure policy belongs to the caller.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
