package oauth

import "errors"

var (
	// ErrUnsupportedProvider is returned when a provider tag has no
	// registered implementation.
	ErrUnsupportedProvider = errors.New("unsupported oauth provider")

	// ErrProviderExchangeFailed is returned when the code-for-token
	// exchange with the provider fails or yields no access token.
	ErrProviderExchangeFailed = errors.New("oauth code exchange failed")

	// ErrProviderProfileFailed is returned when the profile fetch fails
	// or yields an unusable profile.
	ErrProviderProfileFailed = errors.New("oauth profile fetch failed")

	// ErrConfig is returned for invalid provider configuration.
	ErrConfig = errors.New("invalid oauth config")
)
