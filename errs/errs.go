// Package errs defines the error types shared by services built on
// servicekit.
//
// Its purpose is to give API clients meaningful, actionable, and
// consistent error responses:
//
//   - a stable JSON error shape (HTTPError)
//   - field-level validation errors for forms
//   - optional "action hints" (like redirect) frontends can interpret
//   - errors that play nicely with the standard errors package
package errs
