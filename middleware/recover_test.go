package middleware

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

func TestRecover(t *testing.T) {
	t.Run("passes through normal responses", func(t *testing.T) {
		handler := Recover()(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			return protocol.NewResponse(req.ID, "ok"), nil
		})

		resp, err := handler(context.Background(), request("1", "ping"))
		if err != nil || resp == nil {
			t.Fatalf("unexpected result %v, %v", resp, err)
		}
	})

	for _, tc := range []struct {
		name  string
		value any
	}{
		{"string panic", "boom"},
		{"error panic", errors.New("boom")},
		{"other panic", 42},
	} {
		t.Run(tc.name, func(t *testing.T) {
			logger := &mockLogger{}
			handler := Recover(WithRecoverLogger(logger))(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
				panic(tc.value)
			})

			resp, err := handler(context.Background(), request("1", "tools/call"))
			if resp != nil {
				t.Error("expected nil response")
			}

			var perr *protocol.Error
			if !errors.As(err, &perr) {
				t.Fatalf("expected protocol error, got %v", err)
			}
			if perr.Code != protocol.CodeInternalError {
				t.Errorf("Code = %d", perr.Code)
			}
			if !strings.HasPrefix(perr.Message, "Internal error: panic: ") {
				t.Errorf("Message = %q", perr.Message)
			}
			if len(logger.entries) != 1 || logger.entries[0].level != "error" {
				t.Errorf("expected one error log entry, got %+v", logger.entries)
			}
		})
	}
}
