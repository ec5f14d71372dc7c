package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/minimal-mcp/capabilities"
	"github.com/felixgeelhaar/minimal-mcp/middleware"
	"github.com/felixgeelhaar/minimal-mcp/transport"
)

func TestDefaultInfo(t *testing.T) {
	info := DefaultInfo()
	if info.Name != "minimal-mcp" || info.Version != "1.0.0" {
		t.Errorf("info = %+v", info)
	}
	caps := info.Capabilities
	if !caps.Tools || !caps.Resources || !caps.Prompts || !caps.RootsListChanged {
		t.Errorf("capabilities = %+v, want all enabled", caps)
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv := NewServer(DefaultInfo())
	if err := capabilities.Register(srv); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return srv
}

func serveLines(t *testing.T, h transport.Handler, lines ...string) []string {
	t.Helper()
	in := bytes.NewBufferString(strings.Join(lines, "\n") + "\n")
	out := &bytes.Buffer{}

	tr := transport.NewStdio(transport.WithStdin(in), transport.WithStdout(out))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := tr.Serve(ctx, h); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	return strings.Split(strings.TrimSpace(out.String()), "\n")
}

func TestServeStdio_Session(t *testing.T) {
	h := NewHandler(newTestServer(t))

	got := serveLines(t, h,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26"}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":"roots_request_1","result":{"roots":[{"uri":"file:///home"}]}}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	)

	if len(got) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(got), strings.Join(got, "\n"))
	}
	if !strings.Contains(got[0], `"id":1`) || !strings.Contains(got[0], `"protocolVersion":"2025-03-26"`) {
		t.Errorf("line 1 = %s", got[0])
	}
	if got[1] != `{"jsonrpc":"2.0","id":"roots_request_1","method":"roots/list","params":{}}` {
		t.Errorf("line 2 = %s", got[1])
	}
	if got[2] != `{"jsonrpc":"2.0","id":2,"result":{}}` {
		t.Errorf("line 3 = %s", got[2])
	}
	if roots := h.dispatcher.Roots(); len(roots) != 1 || roots[0].URI != "file:///home" {
		t.Errorf("Roots() = %+v", roots)
	}
}

func TestServeStdio_ErrorsKeepSessionAlive(t *testing.T) {
	h := NewHandler(newTestServer(t))

	got := serveLines(t, h,
		`{not json`,
		`{"jsonrpc":"2.0","id":3,"method":"nope"}`,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"missing"}}`,
		`{"jsonrpc":"2.0","id":5,"method":"ping"}`,
	)

	if len(got) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(got), strings.Join(got, "\n"))
	}

	var first struct {
		ID    json.RawMessage `json:"id"`
		Error struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(got[0]), &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(first.ID) != "null" || first.Error.Code != -32700 {
		t.Errorf("line 1 = %s", got[0])
	}
	if !strings.Contains(got[1], `"code":-32601`) || !strings.Contains(got[1], "Method not found: nope") {
		t.Errorf("line 2 = %s", got[1])
	}
	if !strings.Contains(got[2], `"code":-32602`) || !strings.Contains(got[2], "Unknown tool: missing") {
		t.Errorf("line 3 = %s", got[2])
	}
	if got[3] != `{"jsonrpc":"2.0","id":5,"result":{}}` {
		t.Errorf("line 4 = %s", got[3])
	}
}

func TestServeStdio_WithMiddleware(t *testing.T) {
	logger := &countingLogger{}
	h := NewHandler(newTestServer(t),
		WithMiddleware(DefaultMiddleware(logger, time.Second)...),
		WithLogger(logger),
	)

	got := serveLines(t, h, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	if len(got) != 1 || !strings.Contains(got[0], `"days_between"`) {
		t.Fatalf("output = %v", got)
	}
	if logger.infos == 0 {
		t.Error("expected the logging middleware to log")
	}
}

func TestNewHandler_HTTP(t *testing.T) {
	callbacks := NewCallbacks()
	h := NewHandler(newTestServer(t), WithCallbackTable(callbacks))
	ts := httptest.NewServer(transport.NewHTTP(":0").Handler(h))
	defer ts.Close()

	post := func(body string) string {
		t.Helper()
		resp, err := http.Post(ts.URL+transport.DefaultHTTPPath, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return strings.TrimSpace(buf.String())
	}

	if got := post(`{"jsonrpc":"2.0","method":"notifications/initialized"}`); got != `{"jsonrpc":"2.0","id":"roots_request_1","method":"roots/list","params":{}}` {
		t.Errorf("notification body = %s", got)
	}
	if callbacks.Len() != 1 {
		t.Fatalf("pending = %d, want 1", callbacks.Len())
	}

	if got := post(`{"jsonrpc":"2.0","id":"roots_request_1","result":{"roots":[]}}`); got != `{}` {
		t.Errorf("reply body = %s", got)
	}
	if callbacks.Len() != 0 {
		t.Errorf("pending = %d, want 0", callbacks.Len())
	}
}

type countingLogger struct {
	middleware.NopLogger
	infos int
}

func (l *countingLogger) Info(string, ...middleware.Field) { l.infos++ }
