// Package mcp is a minimal Model Context Protocol server.
//
// A Server holds the tools, resources and prompts the peer can use. A
// Dispatcher routes JSON-RPC requests to them and answers notifications
// by asking the peer for its roots. Transports carry the messages:
//
//	srv := mcp.NewServer(mcp.DefaultInfo())
//	if err := capabilities.Register(srv); err != nil {
//	    return err
//	}
//	mcp.ServeStdio(ctx, srv, mcp.WithLogger(logger))
package mcp

import (
	"context"
	"time"

	"github.com/felixgeelhaar/minimal-mcp/middleware"
	"github.com/felixgeelhaar/minimal-mcp/server"
	"github.com/felixgeelhaar/minimal-mcp/transport"
)

// Name and Version identify this server during initialize.
const (
	Name    = "minimal-mcp"
	Version = "1.0.0"
)

// ServerInfo contains server metadata exposed to clients.
type ServerInfo = server.Info

// Capabilities declares what features the server supports.
type Capabilities = server.Capabilities

// Server is the capability registry.
type Server = server.Server

// Option configures a Server.
type Option = server.Option

// Middleware types
type Middleware = middleware.Middleware
type Logger = middleware.Logger
type LogField = middleware.Field

// DefaultInfo returns the identity and capabilities advertised by default.
func DefaultInfo() ServerInfo {
	return ServerInfo{
		Name:    Name,
		Version: Version,
		Capabilities: Capabilities{
			Tools:            true,
			Resources:        true,
			Prompts:          true,
			RootsListChanged: true,
		},
	}
}

// NewServer creates a new MCP server with the given info and options.
func NewServer(info ServerInfo, opts ...Option) *Server {
	return server.New(info, opts...)
}

// ServeOption configures how the server is run.
type ServeOption func(*serveOptions)

type serveOptions struct {
	middleware []Middleware
	logger     Logger
	callbacks  *Callbacks
}

// WithMiddleware adds middleware to the request handling chain.
func WithMiddleware(m ...Middleware) ServeOption {
	return func(o *serveOptions) {
		o.middleware = append(o.middleware, m...)
	}
}

// WithLogger sets the logger for the dispatcher and the transport.
func WithLogger(l Logger) ServeOption {
	return func(o *serveOptions) {
		o.logger = l
	}
}

// WithCallbackTable shares a callback table with the caller, which can then
// observe server-initiated requests in flight.
func WithCallbackTable(c *Callbacks) ServeOption {
	return func(o *serveOptions) {
		o.callbacks = c
	}
}

func newServeOptions(opts []ServeOption) *serveOptions {
	o := &serveOptions{logger: middleware.NopLogger{}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewHandler builds the transport handler for srv.
func NewHandler(srv *Server, opts ...ServeOption) *Handler {
	o := newServeOptions(opts)
	return newHandler(srv, o)
}

func newHandler(srv *Server, o *serveOptions) *Handler {
	d := NewDispatcher(srv,
		WithDispatcherLogger(o.logger),
		WithCallbacks(o.callbacks),
	)
	return d.Handler(o.middleware...)
}

// ServeStdio runs the server over stdin and stdout.
// This blocks until the context is canceled or stdin is closed.
func ServeStdio(ctx context.Context, srv *Server, opts ...ServeOption) error {
	o := newServeOptions(opts)
	t := transport.NewStdio(transport.WithStdioLogger(o.logger))
	return t.Serve(ctx, newHandler(srv, o))
}

// ServeHTTP runs the server using the HTTP transport.
// This blocks until the context is canceled or an error occurs.
func ServeHTTP(ctx context.Context, srv *Server, addr string, httpOpts []transport.HTTPOption, opts ...ServeOption) error {
	o := newServeOptions(opts)
	httpOpts = append([]transport.HTTPOption{transport.WithHTTPLogger(o.logger)}, httpOpts...)
	t := transport.NewHTTP(addr, httpOpts...)
	return t.Serve(ctx, newHandler(srv, o))
}

// ServeWebSocket runs the server using the WebSocket transport.
// This blocks until the context is canceled or an error occurs.
func ServeWebSocket(ctx context.Context, srv *Server, addr string, wsOpts []transport.WebSocketOption, opts ...ServeOption) error {
	o := newServeOptions(opts)
	wsOpts = append([]transport.WebSocketOption{transport.WithWebSocketLogger(o.logger)}, wsOpts...)
	t := transport.NewWebSocket(addr, wsOpts...)
	return t.Serve(ctx, newHandler(srv, o))
}

// DefaultMiddleware returns the recommended middleware stack.
func DefaultMiddleware(logger Logger, timeout time.Duration) []Middleware {
	return middleware.DefaultStack(logger, timeout)
}

// LogF creates a new log field with the given key and value.
func LogF(key string, value any) LogField {
	return middleware.F(key, value)
}
