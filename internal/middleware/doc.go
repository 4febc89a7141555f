// Package middleware provides the HTTP middleware for the CampusConnect API.
//
// The global chain, outermost first:
//
//	RequestID -> Logger -> Recovery -> CORS -> RateLimit -> Idempotency -> Compress
//
// Auth and OptionalAuth are applied per route. Auth turns a bearer token into
// the current *model.User through an Authenticator (the account service), so
// role changes and deactivation take effect on the next request rather than
// when the token expires. Handlers read the caller with GetUser.
//
// RateLimit keeps one golang.org/x/time/rate bucket per client IP, or per user
// when a user is already in the context. Idempotency replays the stored
// response for a repeated POST carrying the same Idempotency-Key.
package middleware
