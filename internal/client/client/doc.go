// Package client is the transport layer between the terminal client and the
// hub REST API.
//
// # Overview
//
// The package provides:
//  1. Transport-agnostic contracts: AuthAPI (login, register, logout, profile)
//     and PasswordResetAPI (the /password-reset/* endpoints), combined in Client.
//  2. A concrete JSON-over-HTTP implementation (see HTTPClient). An
//     http.RoundTripper injects the bearer token, a per-request X-Request-ID
//     and, when present in the context, an Idempotency-Key.
//
// # Error Handling
//
// Non-2xx responses become *APIError carrying the server "message" field.
// Callers match conditions with errors.Is against ErrUnauthorized and
// ErrUnavailable; MessageOf extracts the server text for display.
//
// All operations accept context.Context and honor cancellation. The overall
// request timeout is fixed when the client is constructed.
package client
