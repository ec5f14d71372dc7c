package middleware

import "time"

// DefaultStack returns the middleware every transport runs: panic recovery,
// request ids, a per-message deadline and logging. A zero timeout disables
// the deadline.
func DefaultStack(logger Logger, timeout time.Duration) []Middleware {
	return []Middleware{
		Recover(WithRecoverLogger(logger)),
		RequestID(),
		Timeout(timeout),
		Logging(logger),
	}
}
