package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

// RecoverOption configures the Recover middleware.
type RecoverOption func(*recoverConfig)

type recoverConfig struct {
	logger Logger
}

// WithRecoverLogger logs recovered panics with their stack.
func WithRecoverLogger(l Logger) RecoverOption {
	return func(c *recoverConfig) {
		c.logger = l
	}
}

// Recover returns middleware that turns a panic into an internal error, so a
// bad message never takes the process down.
func Recover(opts ...RecoverOption) Middleware {
	cfg := &recoverConfig{logger: NopLogger{}}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (resp *protocol.Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					cfg.logger.Error("recovered from panic",
						F("method", req.Method),
						F("panic", fmt.Sprint(r)),
						F("stack", string(debug.Stack())),
					)
					resp, err = nil, protocol.NewInternalError(fmt.Sprintf("panic: %v", r))
				}
			}()
			return next(ctx, req)
		}
	}
}
