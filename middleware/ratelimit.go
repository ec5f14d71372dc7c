package middleware

import (
	"context"
	"net"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

// KeyFunc picks the bucket a message is charged to.
type KeyFunc func(ctx context.Context, req *protocol.Request) string

// RateLimitOption configures the rate limiter.
type RateLimitOption func(*rateLimitConfig)

type rateLimitConfig struct {
	keyFunc KeyFunc
	logger  Logger
}

// WithRateLimitKeyFunc overrides the default per-client bucketing.
func WithRateLimitKeyFunc(fn KeyFunc) RateLimitOption {
	return func(o *rateLimitConfig) {
		o.keyFunc = fn
	}
}

// WithRateLimitLogger sets the logger for rate limit events.
func WithRateLimitLogger(l Logger) RateLimitOption {
	return func(o *rateLimitConfig) {
		o.logger = l
	}
}

// ClientKey buckets by peer host when the transport knows it, and shares a
// single bucket otherwise (stdio).
func ClientKey(ctx context.Context, _ *protocol.Request) string {
	addr := protocol.GetRequestMeta(ctx, protocol.MetaRemoteAddr)
	if addr == "" {
		return "global"
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// RateLimit returns middleware that allows rate messages per second per
// bucket, with bursts up to burst.
func RateLimit(rate, burst int, opts ...RateLimitOption) Middleware {
	cfg := &rateLimitConfig{
		keyFunc: ClientKey,
		logger:  NopLogger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if burst < rate {
		burst = rate
	}

	limiter := ratelimit.New(&ratelimit.Config{
		Rate:     rate,
		Burst:    burst,
		Interval: time.Second,
	})

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			key := cfg.keyFunc(ctx, req)
			if !limiter.Allow(ctx, key) {
				cfg.logger.Warn("rate limit exceeded",
					F("method", req.Method),
					F("key", key),
				)
				return nil, protocol.NewRateLimited("rate limit exceeded")
			}
			return next(ctx, req)
		}
	}
}
