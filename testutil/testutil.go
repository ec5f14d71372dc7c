// Package testutil provides testing utilities for MCP servers.
//
// TestClient drives a server in memory through the same decode, dispatch and
// envelope path the transports use. StdioPipe runs the real stdio transport
// over in-process pipes.
//
// Example usage:
//
//	func TestMyServer(t *testing.T) {
//	    srv := mcp.NewServer(mcp.DefaultInfo())
//	    require.NoError(t, capabilities.Register(srv))
//
//	    tc := testutil.NewTestClient(t, srv)
//	    defer tc.Close()
//
//	    text, err := tc.CallTool("days_between", map[string]any{
//	        "start_date": "2025-01-01", "end_date": "2025-01-02",
//	    })
//	    require.NoError(t, err)
//	    assert.Equal(t, "There are 1 days between 2025-01-01 and 2025-01-02.", text)
//	}
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	mcp "github.com/felixgeelhaar/minimal-mcp"
	"github.com/felixgeelhaar/minimal-mcp/protocol"
	"github.com/felixgeelhaar/minimal-mcp/server"
	"github.com/felixgeelhaar/minimal-mcp/transport"
)

// TestClient is a test client for MCP servers.
type TestClient struct {
	t       testing.TB
	handler transport.Handler
	reqID   int64

	mu   sync.Mutex
	sent []*protocol.Request
}

// NewTestClient creates a test client for srv and runs initialize.
func NewTestClient(t testing.TB, srv *server.Server, opts ...mcp.ServeOption) *TestClient {
	t.Helper()

	tc := NewTestClientWithHandler(t, mcp.NewHandler(srv, opts...))
	if _, err := tc.Initialize(); err != nil {
		t.Fatalf("failed to initialize server: %v", err)
	}
	return tc
}

// NewTestClientWithHandler creates a test client with a custom handler.
// This is useful for testing middleware.
func NewTestClientWithHandler(t testing.TB, handler transport.Handler) *TestClient {
	t.Helper()
	return &TestClient{
		t:       t,
		handler: handler,
	}
}

// Close releases the client. The in-memory client holds nothing.
func (tc *TestClient) Close() {}

// SendRequest implements transport.Peer and records requests the server
// sends to the client.
func (tc *TestClient) SendRequest(req *protocol.Request) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.sent = append(tc.sent, req)
	return nil
}

// ServerRequests returns the requests the server has sent so far.
func (tc *TestClient) ServerRequests() []*protocol.Request {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return append([]*protocol.Request(nil), tc.sent...)
}

func (tc *TestClient) nextID() json.RawMessage {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.reqID++
	return json.RawMessage(fmt.Sprintf("%d", tc.reqID))
}

// SendRaw feeds one raw message to the server and returns the envelope it
// produced, or nil when nothing would be written back.
func (tc *TestClient) SendRaw(data []byte) *protocol.Response {
	tc.t.Helper()
	ctx := transport.ContextWithPeer(context.Background(), tc)
	ctx = protocol.SetRequestMeta(ctx, protocol.MetaTransport, "test")
	return transport.Process(ctx, tc.handler, data, nil)
}

// Call sends a request and returns the raw response envelope.
func (tc *TestClient) Call(method protocol.Method, params any) (*protocol.Response, error) {
	tc.t.Helper()

	req, err := protocol.NewRequest(tc.nextID(), method, params)
	if err != nil {
		return nil, err
	}
	if params == nil {
		req.Params = nil
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	resp := tc.SendRaw(data)
	if resp == nil {
		return nil, fmt.Errorf("%s: no response", method)
	}
	return resp, nil
}

// Notify sends a notification and returns the requests the server sent back
// in reaction to it.
func (tc *TestClient) Notify(method protocol.Method, params any) ([]*protocol.Request, error) {
	tc.t.Helper()

	before := len(tc.ServerRequests())

	req, err := protocol.NewRequest(nil, method, params)
	if err != nil {
		return nil, err
	}
	if params == nil {
		req.Params = nil
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}

	if resp := tc.SendRaw(data); resp != nil {
		return nil, fmt.Errorf("notification %s produced a response", method)
	}
	return tc.ServerRequests()[before:], nil
}

// Reply answers a request the server sent to the client.
func (tc *TestClient) Reply(id json.RawMessage, result any) error {
	tc.t.Helper()

	data, err := json.Marshal(protocol.NewResponse(id, result))
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}
	if resp := tc.SendRaw(data); resp != nil {
		return fmt.Errorf("reply produced a response: %+v", resp)
	}
	return nil
}

// call sends a request and decodes the result into v.
func (tc *TestClient) call(method protocol.Method, params any, v any) error {
	resp, err := tc.Call(method, params)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}

	data, err := json.Marshal(resp.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// Initialize sends an initialize request to the server.
func (tc *TestClient) Initialize() (map[string]any, error) {
	tc.t.Helper()

	var result map[string]any
	err := tc.call(protocol.MethodInitialize, map[string]any{
		"protocolVersion": protocol.MCPVersion,
		"capabilities":    map[string]any{"roots": map[string]any{"listChanged": true}},
		"clientInfo":      map[string]any{"name": "testutil", "version": "1.0.0"},
	}, &result)
	return result, err
}

// Ping sends a ping request.
func (tc *TestClient) Ping() error {
	tc.t.Helper()
	var result map[string]any
	return tc.call(protocol.MethodPing, nil, &result)
}

// ListTools lists all available tools.
func (tc *TestClient) ListTools() ([]map[string]any, error) {
	tc.t.Helper()
	var result struct {
		Tools []map[string]any `json:"tools"`
	}
	err := tc.call(protocol.MethodToolsList, nil, &result)
	return result.Tools, err
}

// CallToolResult calls a tool and returns its result payload.
func (tc *TestClient) CallToolResult(name string, args any) (*server.ToolResult, error) {
	tc.t.Helper()
	var result server.ToolResult
	err := tc.call(protocol.MethodToolsCall, map[string]any{"name": name, "arguments": args}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CallTool calls a tool and returns the text of the result. A result
// flagged isError is returned as an error.
func (tc *TestClient) CallTool(name string, args any) (string, error) {
	tc.t.Helper()

	result, err := tc.CallToolResult(name, args)
	if err != nil {
		return "", err
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("tool %s returned no content", name)
	}
	if result.IsError {
		return "", &server.ToolError{Message: result.Content[0].Text}
	}
	return result.Content[0].Text, nil
}

// ListResources lists all available resources.
func (tc *TestClient) ListResources() ([]server.ResourceInfo, error) {
	tc.t.Helper()
	var result struct {
		Resources []server.ResourceInfo `json:"resources"`
	}
	err := tc.call(protocol.MethodResourcesList, nil, &result)
	return result.Resources, err
}

// ReadResource reads a resource by URI and returns the text of its first
// content block.
func (tc *TestClient) ReadResource(uri string) (string, error) {
	tc.t.Helper()

	var result server.ReadResult
	if err := tc.call(protocol.MethodResourcesRead, map[string]any{"uri": uri}, &result); err != nil {
		return "", err
	}
	if len(result.Contents) == 0 {
		return "", fmt.Errorf("resource %s returned no contents", uri)
	}
	return result.Contents[0].Text, nil
}

// ListPrompts lists all available prompts.
func (tc *TestClient) ListPrompts() ([]server.PromptInfo, error) {
	tc.t.Helper()
	var result struct {
		Prompts []server.PromptInfo `json:"prompts"`
	}
	err := tc.call(protocol.MethodPromptsList, nil, &result)
	return result.Prompts, err
}

// GetPrompt gets a prompt by name with the given arguments.
func (tc *TestClient) GetPrompt(name string, args map[string]string) (*server.PromptResult, error) {
	tc.t.Helper()

	params := map[string]any{"name": name}
	if args != nil {
		params["arguments"] = args
	}

	var result server.PromptResult
	if err := tc.call(protocol.MethodPromptsGet, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
