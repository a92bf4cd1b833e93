// Package middleware stores the request middleware shared by services
// built on servicekit.
//
// It intercepts requests to handle cross-cutting concerns: JWT
// authentication, per-request database transactions, request logging,
// correlation IDs, CORS, panic recovery, and APM tracing.
package middleware
