package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/minimal-mcp/middleware"
	"github.com/felixgeelhaar/minimal-mcp/protocol"
	"github.com/felixgeelhaar/minimal-mcp/server"
	"github.com/felixgeelhaar/minimal-mcp/transport"
)

// RootsRequestID is the correlation id of the roots/list request the server
// sends in reaction to a notification. Peers number their own requests, so
// a string id never collides with them in practice.
const RootsRequestID = "roots_request_1"

// notify reacts to an inbound notification. Any notification makes the
// server ask the peer for its roots; the request is returned so the caller
// can deliver it.
func (d *Dispatcher) notify(ctx context.Context, req *protocol.Request) (*protocol.Request, error) {
	out, err := protocol.NewRequest(protocol.StringID(RootsRequestID), protocol.MethodRootsList, struct{}{})
	if err != nil {
		return nil, err
	}
	if err := d.callbacks.Register(out.ID, protocol.MethodRootsList, d.rootsReceived); err != nil {
		return nil, err
	}

	d.logger.Debug("notification received",
		middleware.F("method", req.Method),
		middleware.F("reply_method", out.Method),
	)
	return out, nil
}

// handleNotification delivers the request produced by notify through the
// peer of the current transport.
func (d *Dispatcher) handleNotification(ctx context.Context, req *protocol.Request) error {
	out, err := d.notify(ctx, req)
	if err != nil {
		return err
	}

	peer := transport.PeerFromContext(ctx)
	if peer == nil {
		d.callbacks.Cancel(out.ID)
		d.logger.Warn("no peer to send request to", middleware.F("method", out.Method))
		return nil
	}
	if err := peer.SendRequest(out); err != nil {
		d.callbacks.Cancel(out.ID)
		return fmt.Errorf("send %s: %w", out.Method, err)
	}
	return nil
}

// rootsReceived is the continuation for roots/list.
func (d *Dispatcher) rootsReceived(_ context.Context, resp *protocol.Response) {
	if resp.Error != nil {
		d.logger.Warn("peer rejected roots/list",
			middleware.F("code", resp.Error.Code),
			middleware.F("error", resp.Error.Message),
		)
		return
	}

	raw, err := json.Marshal(resp.Result)
	if err != nil {
		d.logger.Warn("unreadable roots/list reply", middleware.F("error", err.Error()))
		return
	}

	var result server.ListRootsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		d.logger.Warn("unreadable roots/list reply", middleware.F("error", err.Error()))
		return
	}

	d.mu.Lock()
	d.roots = result.Roots
	d.mu.Unlock()

	d.logger.Info("roots received", middleware.F("count", len(result.Roots)), middleware.F("roots", result.Roots))
}

// Roots returns the roots last reported by the peer.
func (d *Dispatcher) Roots() []server.Root {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]server.Root(nil), d.roots...)
}
