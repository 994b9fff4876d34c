// Package authapi exposes the auth subsystem over HTTP.
//
// Refresh tokens travel in an HttpOnly cookie; access tokens travel in a
// response header and are presented back as a bearer token. The legacy
// no-state OAuth callbacks under /users are kept for old clients.
package authapi
