// Package auth protects the JSON API with a single bearer token.
//
// Only a bcrypt hash of the token is configured (AUTH_TOKEN_HASH). When the
// hash is empty the API is open. Generate a token and its hash with
//
//	mangashelf token
//
// # Brute force protection
//
// RateLimiter counts failed token checks per client IP inside a sliding
// window and locks the client out once the limit is reached. A successful
// check clears the record.
//
// # Response headers
//
// SecurityHeadersMiddleware sets headers suited to a JSON API: no sniffing,
// no framing and a deny-all content security policy.
package auth
