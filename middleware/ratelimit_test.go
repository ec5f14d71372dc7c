package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

func okHandler(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return protocol.NewResponse(req.ID, "ok"), nil
}

func TestRateLimit(t *testing.T) {
	t.Run("rejects after burst", func(t *testing.T) {
		handler := RateLimit(1, 1)(okHandler)
		ctx := context.Background()

		if _, err := handler(ctx, request("1", "ping")); err != nil {
			t.Fatalf("first request: unexpected error %v", err)
		}

		_, err := handler(ctx, request("1", "ping"))
		var perr *protocol.Error
		if !errors.As(err, &perr) || perr.Code != protocol.CodeRateLimited {
			t.Fatalf("expected rate limited error, got %v", err)
		}
	})

	t.Run("buckets per client", func(t *testing.T) {
		handler := RateLimit(1, 1)(okHandler)
		a := protocol.SetRequestMeta(context.Background(), protocol.MetaRemoteAddr, "10.0.0.1:5000")
		b := protocol.SetRequestMeta(context.Background(), protocol.MetaRemoteAddr, "10.0.0.2:5000")

		if _, err := handler(a, request("1", "ping")); err != nil {
			t.Fatalf("client a: %v", err)
		}
		if _, err := handler(b, request("1", "ping")); err != nil {
			t.Fatalf("client b: %v", err)
		}
		if _, err := handler(a, request("2", "ping")); err == nil {
			t.Fatal("expected client a to be limited")
		}
	})
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"", "global"},
		{"192.168.1.4:8080", "192.168.1.4"},
		{"[::1]:9000", "::1"},
		{"no-port", "no-port"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			ctx := context.Background()
			if tt.addr != "" {
				ctx = protocol.SetRequestMeta(ctx, protocol.MetaRemoteAddr, tt.addr)
			}
			if got := ClientKey(ctx, request("1", "ping")); got != tt.want {
				t.Errorf("ClientKey = %q, want %q", got, tt.want)
			}
		})
	}
}
