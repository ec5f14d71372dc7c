package middleware

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

// Size presets.
const (
	KB = 1024
	MB = 1024 * KB
)

// SizeLimit returns middleware that rejects messages whose params exceed
// maxBytes with an invalid params error.
func SizeLimit(maxBytes int64, logger Logger) Middleware {
	if logger == nil {
		logger = NopLogger{}
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if size := int64(len(req.Params)); size > maxBytes {
				logger.Warn("params size limit exceeded",
					F("method", req.Method),
					F("size", size),
					F("max", maxBytes),
				)
				return nil, protocol.NewInvalidParams(fmt.Sprintf("params size %d exceeds limit of %d bytes", size, maxBytes))
			}
			return next(ctx, req)
		}
	}
}
