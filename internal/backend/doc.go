// Package backend is the HTTP client for the vision service. It wraps
// resty with rate limiting and a circuit breaker, injects bearer tokens
// from a TokenSource, and transparently refreshes credentials once when
// a request comes back 401.
package backend
