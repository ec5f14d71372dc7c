package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

// ErrNoCredentials is returned by authenticators when the message carries
// no credentials at all.
var ErrNoCredentials = errors.New("no credentials")

// Identity represents an authenticated caller.
type Identity struct {
	ID string
}

type identityKey struct{}

// IdentityFromContext returns the authenticated identity, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// ContextWithIdentity returns a new context with the identity attached.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// Authenticator validates the credentials attached to a message.
type Authenticator func(ctx context.Context, req *protocol.Request) (*Identity, error)

// AuthOption configures the authentication middleware.
type AuthOption func(*authConfig)

type authConfig struct {
	logger      Logger
	skipMethods map[string]bool
}

// WithAuthLogger sets the logger for auth events.
func WithAuthLogger(l Logger) AuthOption {
	return func(c *authConfig) {
		c.logger = l
	}
}

// WithAuthSkipMethods exempts more methods. initialize and ping are always
// exempt.
func WithAuthSkipMethods(methods ...protocol.Method) AuthOption {
	return func(c *authConfig) {
		for _, m := range methods {
			c.skipMethods[string(m)] = true
		}
	}
}

// Auth returns middleware that rejects unauthenticated messages with an
// unauthorized error.
func Auth(authenticator Authenticator, opts ...AuthOption) Middleware {
	cfg := &authConfig{
		logger: NopLogger{},
		skipMethods: map[string]bool{
			string(protocol.MethodInitialize): true,
			string(protocol.MethodPing):       true,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if cfg.skipMethods[req.Method] {
				return next(ctx, req)
			}

			identity, err := authenticator(ctx, req)
			if err == nil && identity == nil {
				err = errors.New("credentials rejected")
			}
			if err != nil {
				cfg.logger.Warn("authentication failed",
					F("method", req.Method),
					F("error", err.Error()),
				)
				return nil, protocol.NewUnauthorized("authentication required")
			}

			return next(ContextWithIdentity(ctx, identity), req)
		}
	}
}

// BearerToken returns an authenticator accepting exactly one static token,
// read from the Authorization header the transport put in request metadata.
func BearerToken(token string) Authenticator {
	want := []byte(token)
	return func(ctx context.Context, _ *protocol.Request) (*Identity, error) {
		header := protocol.GetRequestMeta(ctx, protocol.MetaAuthorization)
		if header == "" {
			return nil, ErrNoCredentials
		}

		scheme, got, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return nil, errors.New("unsupported authorization scheme")
		}
		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), want) != 1 {
			return nil, nil
		}
		return &Identity{ID: "bearer"}, nil
	}
}
