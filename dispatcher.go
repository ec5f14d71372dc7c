package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/minimal-mcp/middleware"
	"github.com/felixgeelhaar/minimal-mcp/protocol"
	"github.com/felixgeelhaar/minimal-mcp/server"
)

// route answers one request method with a result payload.
type route func(ctx context.Context, params json.RawMessage) (any, error)

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the logger used for notifications and replies.
func WithDispatcherLogger(l Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithCallbacks shares a callback table between dispatchers.
func WithCallbacks(c *Callbacks) DispatcherOption {
	return func(d *Dispatcher) {
		if c != nil {
			d.callbacks = c
		}
	}
}

// Dispatcher routes inbound requests to the capability registry and turns
// notifications into server-initiated requests.
type Dispatcher struct {
	srv       *Server
	routes    map[protocol.Method]route
	callbacks *Callbacks
	logger    Logger

	mu    sync.Mutex
	roots []server.Root
}

// NewDispatcher creates a dispatcher over srv.
func NewDispatcher(srv *Server, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		srv:       srv,
		callbacks: NewCallbacks(),
		logger:    middleware.NopLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}

	d.routes = map[protocol.Method]route{
		protocol.MethodInitialize:    d.initialize,
		protocol.MethodPing:          d.ping,
		protocol.MethodResourcesList: d.resourcesList,
		protocol.MethodResourcesRead: d.resourcesRead,
		protocol.MethodToolsList:     d.toolsList,
		protocol.MethodToolsCall:     d.toolsCall,
		protocol.MethodPromptsList:   d.promptsList,
		protocol.MethodPromptsGet:    d.promptsGet,
	}
	return d
}

// Callbacks returns the table of server-initiated requests awaiting a reply.
func (d *Dispatcher) Callbacks() *Callbacks {
	return d.callbacks
}

// Dispatch handles one inbound request or notification. It returns a nil
// response for notifications and for replies to server-initiated requests.
func (d *Dispatcher) Dispatch(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	if d.callbacks.Outstanding(req.ID) {
		resp := &protocol.Response{JSONRPC: protocol.JSONRPCVersion, ID: req.ID}
		if len(req.Params) > 0 {
			resp.Result = req.Params
		}
		d.HandleResponse(ctx, resp)
		return nil, nil
	}

	if req.IsNotification() {
		return nil, d.handleNotification(ctx, req)
	}

	fn, ok := d.routes[protocol.Method(req.Method)]
	if !ok {
		return nil, protocol.NewMethodNotFound(req.Method)
	}

	result, err := fn(ctx, req.Params)
	if err != nil {
		return nil, err
	}
	return protocol.NewResponse(req.ID, result), nil
}

// HandleResponse consumes the peer's reply to a server-initiated request.
// Replies that match nothing in flight are dropped.
func (d *Dispatcher) HandleResponse(ctx context.Context, resp *protocol.Response) {
	method, ok := d.callbacks.Resolve(ctx, resp)
	if !ok {
		d.logger.Debug("dropped unmatched reply", middleware.F("id", string(resp.ID)))
		return
	}
	d.logger.Debug("reply consumed", middleware.F("id", string(resp.ID)), middleware.F("method", method))
}

// Handler wraps the dispatcher in the given middleware.
func (d *Dispatcher) Handler(mw ...Middleware) *Handler {
	next := middleware.HandlerFunc(d.Dispatch)
	if len(mw) > 0 {
		next = middleware.Chain(mw...)(next)
	}
	return &Handler{dispatcher: d, next: next}
}

// Handler adapts a Dispatcher and its middleware chain to the transports.
// Requests pass through the chain; replies to server-initiated requests go
// straight to the dispatcher.
type Handler struct {
	dispatcher *Dispatcher
	next       middleware.HandlerFunc
}

// HandleRequest runs req through the middleware chain.
func (h *Handler) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return h.next(ctx, req)
}

// HandleResponse forwards resp to the dispatcher.
func (h *Handler) HandleResponse(ctx context.Context, resp *protocol.Response) {
	h.dispatcher.HandleResponse(ctx, resp)
}

// decodeParams unmarshals params into v. Absent or null params leave v at
// its zero value; anything but an object is rejected.
func decodeParams(params json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] != '{' {
		return protocol.NewInvalidParams("Invalid params: expected an object")
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return protocol.NewInvalidParams("Invalid params: " + err.Error())
	}
	return nil
}

type emptyObject struct{}

type capabilitiesResult struct {
	Prompts   *emptyObject       `json:"prompts,omitempty"`
	Resources *emptyObject       `json:"resources,omitempty"`
	Roots     *rootsCapabilities `json:"roots,omitempty"`
	Tools     *emptyObject       `json:"tools,omitempty"`
}

type rootsCapabilities struct {
	ListChanged bool `json:"listChanged"`
}

type serverInfoResult struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the result payload of initialize.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    capabilitiesResult `json:"capabilities"`
	ServerInfo      serverInfoResult   `json:"serverInfo"`
}

func (d *Dispatcher) initialize(_ context.Context, params json.RawMessage) (any, error) {
	var ignored map[string]json.RawMessage
	if err := decodeParams(params, &ignored); err != nil {
		return nil, err
	}

	manifest := d.srv.Manifest()
	caps := capabilitiesResult{}
	if manifest.Capabilities.Prompts {
		caps.Prompts = &emptyObject{}
	}
	if manifest.Capabilities.Resources {
		caps.Resources = &emptyObject{}
	}
	if manifest.Capabilities.RootsListChanged {
		caps.Roots = &rootsCapabilities{ListChanged: true}
	}
	if manifest.Capabilities.Tools {
		caps.Tools = &emptyObject{}
	}

	return InitializeResult{
		ProtocolVersion: manifest.ProtocolVersion,
		Capabilities:    caps,
		ServerInfo: serverInfoResult{
			Name:    manifest.Name,
			Version: manifest.Version,
		},
	}, nil
}

func (d *Dispatcher) ping(context.Context, json.RawMessage) (any, error) {
	return emptyObject{}, nil
}

func (d *Dispatcher) resourcesList(context.Context, json.RawMessage) (any, error) {
	return struct {
		Resources []server.ResourceInfo `json:"resources"`
	}{d.srv.Resources()}, nil
}

func (d *Dispatcher) resourcesRead(ctx context.Context, raw json.RawMessage) (any, error) {
	var params struct {
		URI string `json:"uri"`
	}
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}

	resource, ok := d.srv.FindResourceForURI(params.URI)
	if !ok {
		return nil, protocol.Errorf(protocol.CodeInvalidParams, "Unknown resource URI: %s", params.URI)
	}

	result, err := resource.Read(ctx, params.URI)
	if err != nil {
		return nil, protocol.AsError(err)
	}
	return result, nil
}

func (d *Dispatcher) toolsList(context.Context, json.RawMessage) (any, error) {
	return struct {
		Tools []server.ToolInfo `json:"tools"`
	}{d.srv.Tools()}, nil
}

func (d *Dispatcher) toolsCall(ctx context.Context, raw json.RawMessage) (any, error) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}

	tool, ok := d.srv.GetTool(params.Name)
	if !ok {
		return nil, protocol.Errorf(protocol.CodeInvalidParams, "Unknown tool: %s", params.Name)
	}

	middleware.AddSpanEvent(ctx, "tool.execute", attribute.String("mcp.tool", params.Name))

	text, err := tool.Execute(ctx, params.Arguments)
	if err != nil {
		if msg, ok := server.IsToolError(err); ok {
			return server.NewToolErrorResult(msg), nil
		}
		return nil, protocol.AsError(err)
	}
	return server.NewToolResult(text), nil
}

func (d *Dispatcher) promptsList(context.Context, json.RawMessage) (any, error) {
	return struct {
		Prompts []server.PromptInfo `json:"prompts"`
	}{d.srv.Prompts()}, nil
}

func (d *Dispatcher) promptsGet(ctx context.Context, raw json.RawMessage) (any, error) {
	var params struct {
		Name      string            `json:"name"`
		Arguments map[string]string `json:"arguments"`
	}
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}

	prompt, ok := d.srv.GetPrompt(params.Name)
	if !ok {
		return nil, protocol.Errorf(protocol.CodeInvalidParams, "Unknown prompt: %s", params.Name)
	}

	result, err := prompt.Get(ctx, params.Arguments)
	if err != nil {
		return nil, protocol.AsError(err)
	}
	return result, nil
}
