package transport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

// fakeHandler answers "ping", fails "boom", panics on "panic" and, for any
// notification, sends a fixed request through the context peer.
type fakeHandler struct {
	mu        sync.Mutex
	responses []*protocol.Response
}

func (h *fakeHandler) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	if req.IsNotification() {
		out, _ := protocol.NewRequest(protocol.StringID("srv-1"), protocol.MethodRootsList, struct{}{})
		if peer := PeerFromContext(ctx); peer != nil {
			return nil, peer.SendRequest(out)
		}
		return nil, nil
	}
	switch req.Method {
	case "ping":
		return protocol.NewResponse(req.ID, map[string]any{}), nil
	case "boom":
		return nil, errors.New("kaput")
	case "panic":
		panic("handler exploded")
	default:
		return nil, protocol.NewMethodNotFound(req.Method)
	}
}

func (h *fakeHandler) HandleResponse(ctx context.Context, resp *protocol.Response) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, resp)
}

func (h *fakeHandler) received() []*protocol.Response {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*protocol.Response(nil), h.responses...)
}

type recordingPeer struct {
	sent []*protocol.Request
}

func (p *recordingPeer) SendRequest(req *protocol.Request) error {
	p.sent = append(p.sent, req)
	return nil
}

func marshal(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func TestProcess(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "request",
			input: `{"jsonrpc":"2.0","id":7,"method":"ping"}`,
			want:  `{"jsonrpc":"2.0","id":7,"result":{}}`,
		},
		{
			name:  "string id is preserved",
			input: `{"jsonrpc":"2.0","id":"7","method":"ping"}`,
			want:  `{"jsonrpc":"2.0","id":"7","result":{}}`,
		},
		{
			name:  "unknown method",
			input: `{"jsonrpc":"2.0","id":1,"method":"nope"}`,
			want:  `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"Method not found: nope"}}`,
		},
		{
			name:  "plain error becomes internal error",
			input: `{"jsonrpc":"2.0","id":1,"method":"boom"}`,
			want:  `{"jsonrpc":"2.0","id":1,"error":{"code":-32603,"message":"Internal error: kaput"}}`,
		},
		{
			name:  "panic becomes internal error",
			input: `{"jsonrpc":"2.0","id":1,"method":"panic"}`,
			want:  `{"jsonrpc":"2.0","id":1,"error":{"code":-32603,"message":"Internal error: handler exploded"}}`,
		},
		{
			name:  "parse error",
			input: `{not json`,
			want:  `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"Parse error"}}`,
		},
		{
			name:  "missing method keeps id",
			input: `{"jsonrpc":"2.0","id":3}`,
			want:  `{"jsonrpc":"2.0","id":3,"error":{"code":-32600,"message":"Invalid Request: missing method"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Process(context.Background(), &fakeHandler{}, []byte(tt.input), nil)
			if resp == nil {
				t.Fatal("expected a response")
			}
			if got := marshal(t, resp); got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestProcess_Notification(t *testing.T) {
	peer := &recordingPeer{}
	ctx := ContextWithPeer(context.Background(), peer)

	resp := Process(ctx, &fakeHandler{}, []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`), nil)
	if resp != nil {
		t.Fatalf("expected no envelope, got %s", marshal(t, resp))
	}
	if len(peer.sent) != 1 {
		t.Fatalf("expected 1 outbound request, got %d", len(peer.sent))
	}
	if peer.sent[0].Method != string(protocol.MethodRootsList) {
		t.Errorf("Method = %q", peer.sent[0].Method)
	}
}

func TestProcess_NotificationPanicIsSilent(t *testing.T) {
	handler := HandlerFunc(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
		panic("oops")
	})

	resp := Process(context.Background(), handler, []byte(`{"jsonrpc":"2.0","method":"x"}`), nil)
	if resp != nil {
		t.Fatalf("expected no envelope, got %s", marshal(t, resp))
	}
}

func TestProcess_Response(t *testing.T) {
	t.Run("delivered to response handler", func(t *testing.T) {
		h := &fakeHandler{}
		resp := Process(context.Background(), h, []byte(`{"jsonrpc":"2.0","id":"srv-1","result":{"roots":[]}}`), nil)
		if resp != nil {
			t.Fatalf("expected no envelope, got %s", marshal(t, resp))
		}
		got := h.received()
		if len(got) != 1 || string(got[0].ID) != `"srv-1"` {
			t.Fatalf("unexpected responses %+v", got)
		}
	})

	t.Run("dropped without response handler", func(t *testing.T) {
		handler := HandlerFunc(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			t.Fatal("handler must not be called")
			return nil, nil
		})
		resp := Process(context.Background(), handler, []byte(`{"jsonrpc":"2.0","id":1,"result":{}}`), nil)
		if resp != nil {
			t.Fatalf("expected no envelope, got %s", marshal(t, resp))
		}
	})
}
