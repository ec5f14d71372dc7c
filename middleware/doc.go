// Package middleware wraps message handlers with cross-cutting behavior.
//
// Middleware follows the usual wrapping pattern: each middleware receives
// the next handler and returns a new one.
//
//	chain := middleware.Chain(middleware.DefaultStack(logger, 30*time.Second)...)
//	handler := chain(baseHandler)
//
// # Available Middleware
//
//   - Recover: turns panics into internal errors
//   - RequestID: tags messages with the X-Request-ID header or a UUID
//   - Timeout: per-message deadline
//   - Logging: structured log line per message
//   - SizeLimit: rejects oversized params
//   - RateLimit: token bucket per client, backed by fortify
//   - OTel: spans and metrics via OpenTelemetry
//   - Auth: static bearer token check for network transports
//
// Logging goes through the Logger interface. NewSlogLogger adapts log/slog
// and NopLogger discards everything.
package middleware
