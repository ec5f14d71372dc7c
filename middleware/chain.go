package middleware

import (
	"context"

	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

// HandlerFunc handles one inbound request or notification. For
// notifications the response is ignored.
type HandlerFunc func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// Middleware wraps a handler with additional behavior.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middleware so that Chain(m1, m2, m3)(h) runs m1 first and
// h last.
func Chain(middlewares ...Middleware) Middleware {
	return func(final HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
