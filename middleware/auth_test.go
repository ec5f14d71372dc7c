package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

func TestAuth_BearerToken(t *testing.T) {
	handler := Auth(BearerToken("s3cret"))(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
		if IdentityFromContext(ctx) == nil && req.Method != string(protocol.MethodInitialize) {
			t.Error("expected identity in context")
		}
		return protocol.NewResponse(req.ID, "ok"), nil
	})

	withAuth := func(header string) context.Context {
		return protocol.SetRequestMeta(context.Background(), protocol.MetaAuthorization, header)
	}

	tests := []struct {
		name   string
		ctx    context.Context
		method string
		ok     bool
	}{
		{name: "valid token", ctx: withAuth("Bearer s3cret"), method: "tools/list", ok: true},
		{name: "scheme is case insensitive", ctx: withAuth("bearer s3cret"), method: "tools/list", ok: true},
		{name: "wrong token", ctx: withAuth("Bearer nope"), method: "tools/list"},
		{name: "wrong scheme", ctx: withAuth("Basic s3cret"), method: "tools/list"},
		{name: "missing header", ctx: context.Background(), method: "tools/list"},
		{name: "initialize is exempt", ctx: context.Background(), method: "initialize", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler(tt.ctx, request("1", tt.method))
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var perr *protocol.Error
			if !errors.As(err, &perr) || perr.Code != protocol.CodeUnauthorized {
				t.Fatalf("expected unauthorized, got %v", err)
			}
		})
	}
}

func TestAuth_SkipMethods(t *testing.T) {
	deny := func(ctx context.Context, req *protocol.Request) (*Identity, error) {
		return nil, ErrNoCredentials
	}
	handler := Auth(deny, WithAuthSkipMethods(protocol.MethodToolsList))(okHandler)

	if _, err := handler(context.Background(), request("1", "tools/list")); err != nil {
		t.Errorf("tools/list should be exempt: %v", err)
	}
	if _, err := handler(context.Background(), request("1", "ping")); err != nil {
		t.Errorf("ping should be exempt: %v", err)
	}
	if _, err := handler(context.Background(), request("1", "tools/call")); err == nil {
		t.Error("tools/call should be rejected")
	}
}
