package middleware

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

func captureRequestID(t *testing.T, mw Middleware, ctx context.Context) string {
	t.Helper()
	var got string
	handler := mw(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
		got = RequestIDFromContext(ctx)
		return nil, nil
	})
	_, _ = handler(ctx, request("1", "ping"))
	return got
}

func TestRequestID(t *testing.T) {
	t.Run("generates a uuid", func(t *testing.T) {
		id := captureRequestID(t, RequestID(), context.Background())
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("expected uuid, got %q", id)
		}
	})

	t.Run("unique per message", func(t *testing.T) {
		a := captureRequestID(t, RequestID(), context.Background())
		b := captureRequestID(t, RequestID(), context.Background())
		if a == b {
			t.Errorf("expected distinct ids, both %q", a)
		}
	})

	t.Run("reuses transport header", func(t *testing.T) {
		ctx := protocol.SetRequestMeta(context.Background(), protocol.MetaRequestID, "from-header")
		if id := captureRequestID(t, RequestID(), ctx); id != "from-header" {
			t.Errorf("got %q", id)
		}
	})

	t.Run("preserves existing id", func(t *testing.T) {
		ctx := ContextWithRequestID(context.Background(), "existing")
		if id := captureRequestID(t, RequestID(), ctx); id != "existing" {
			t.Errorf("got %q", id)
		}
	})

	t.Run("custom generator", func(t *testing.T) {
		mw := RequestIDWithGenerator(func() string { return "fixed" })
		if id := captureRequestID(t, mw, context.Background()); id != "fixed" {
			t.Errorf("got %q", id)
		}
	})
}
