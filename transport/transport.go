// Package transport provides MCP transport implementations.
package transport

import (
	"context"

	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

// Handler processes incoming MCP requests and notifications. A nil response
// with a nil error means there is nothing to reply.
type Handler interface {
	HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error)
}

// ResponseHandler is implemented by handlers that accept replies to requests
// the server sent to the peer.
type ResponseHandler interface {
	HandleResponse(ctx context.Context, resp *protocol.Response)
}

// HandlerFunc is an adapter to allow ordinary functions as handlers.
type HandlerFunc func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// HandleRequest calls f(ctx, req).
func (f HandlerFunc) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return f(ctx, req)
}

// Transport defines the communication layer interface.
type Transport interface {
	// Serve starts the transport, blocking until ctx is canceled or an error occurs.
	Serve(ctx context.Context, handler Handler) error

	// Addr returns the transport's address description.
	Addr() string
}

// Peer delivers server-initiated requests to the other side of the
// connection the current message arrived on.
type Peer interface {
	SendRequest(req *protocol.Request) error
}

type peerKey struct{}

// ContextWithPeer returns a context with the peer attached.
func ContextWithPeer(ctx context.Context, peer Peer) context.Context {
	return context.WithValue(ctx, peerKey{}, peer)
}

// PeerFromContext returns the peer from context, or nil if none.
func PeerFromContext(ctx context.Context) Peer {
	peer, _ := ctx.Value(peerKey{}).(Peer)
	return peer
}
