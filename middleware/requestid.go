package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

type requestIDKey struct{}

// RequestID returns middleware that tags each message with a request id.
// An id supplied by the transport (the X-Request-ID header) is reused;
// otherwise a random UUID is generated.
func RequestID() Middleware {
	return RequestIDWithGenerator(uuid.NewString)
}

// RequestIDWithGenerator returns middleware that uses a custom ID generator.
func RequestIDWithGenerator(generator func() string) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if RequestIDFromContext(ctx) != "" {
				return next(ctx, req)
			}

			id := protocol.GetRequestMeta(ctx, protocol.MetaRequestID)
			if id == "" {
				id = generator()
			}
			return next(ContextWithRequestID(ctx, id), req)
		}
	}
}

// RequestIDFromContext returns the request ID from the context, or empty string if not set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ContextWithRequestID returns a new context with the request ID set.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}
