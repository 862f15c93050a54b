// Package common contains shared constants and sentinel errors used across
// CENKeeper components.
package common

// AuthorizationHeaderName is the HTTP header used to carry the bearer
// access token on outbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token in the Authorization header.
const BearerPrefix = "Bearer "
