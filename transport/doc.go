// Package transport carries JSON-RPC messages between a peer and a Handler.
//
// All adapters decode and classify messages through Process, so parse
// errors, invalid requests, notifications and replies to server-initiated
// requests behave the same everywhere.
//
// # Stdio Transport
//
// One JSON message per line on stdin; one reply per line on stdout, flushed
// after each message. Blank lines are skipped and lines are handled in
// order:
//
//	t := transport.NewStdio(transport.WithStdioLogger(logger))
//	err := t.Serve(ctx, handler)
//
// # HTTP Transport
//
// A single POST endpoint (default /mcp/). Each body is one message and each
// response body is one JSON value: the reply envelope, the server-initiated
// request produced by a notification, or {} when there is nothing to send.
//
//	t := transport.NewHTTP(":8000",
//	    transport.WithPath("/mcp/"),
//	    transport.WithCORSOrigins("https://app.example.com"),
//	)
//	err := t.Serve(ctx, handler)
//
// # WebSocket Transport
//
// Each text frame is one message. Server-initiated requests are written to
// the same connection.
//
// # Peers
//
// Every adapter attaches a Peer to the request context. Handlers use it to
// send their own requests to the other side:
//
//	if peer := transport.PeerFromContext(ctx); peer != nil {
//	    err := peer.SendRequest(req)
//	}
package transport
