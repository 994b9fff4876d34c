// Package oauth implements lablink's federated login plumbing.
//
// It contains the provider gateway (Kakao and Google token exchange and
// profile fetch) and the anti-replay state store that binds each consent
// round-trip to a consume-once nonce.
//
// Providers are thin HTTP clients with no retry policy; callers decide
// how to handle transient failures. Endpoint URLs are struct fields with
// production defaults so tests can point them at local servers.
package oauth
