package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

// ErrCallbackLimit is returned when a request to the peer is registered
// while a different one is still awaiting its reply.
var ErrCallbackLimit = errors.New("mcp: a server-initiated request is already in flight")

// Continuation runs when the peer replies to a server-initiated request.
type Continuation func(ctx context.Context, resp *protocol.Response)

type pendingCall struct {
	method protocol.Method
	fn     Continuation
}

// Callbacks correlates server-initiated requests with the peer's replies.
//
// Known restriction: at most one request may be in flight. Registering the
// same id again replaces the entry; a different id fails with
// ErrCallbackLimit until the reply arrives. Replies that match no entry are
// dropped.
type Callbacks struct {
	mu      sync.Mutex
	limit   int
	pending map[string]pendingCall
}

// NewCallbacks returns an empty table holding at most one request.
func NewCallbacks() *Callbacks {
	return &Callbacks{
		limit:   1,
		pending: make(map[string]pendingCall),
	}
}

// Register records fn as the continuation for the request with id.
func (c *Callbacks) Register(id json.RawMessage, method protocol.Method, fn Continuation) error {
	key := protocol.IDKey(id)
	if key == "" {
		return errors.New("mcp: server-initiated request needs an id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pending[key]; !ok && len(c.pending) >= c.limit {
		return ErrCallbackLimit
	}
	c.pending[key] = pendingCall{method: method, fn: fn}
	return nil
}

// Cancel forgets the request with id, if any.
func (c *Callbacks) Cancel(id json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, protocol.IDKey(id))
}

// Outstanding reports whether a request with id awaits a reply.
func (c *Callbacks) Outstanding(id json.RawMessage) bool {
	key := protocol.IDKey(id)
	if key == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[key]
	return ok
}

// Len returns the number of requests awaiting a reply.
func (c *Callbacks) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Resolve hands resp to the continuation registered for its id and removes
// the entry. It reports false when no request with that id is pending.
func (c *Callbacks) Resolve(ctx context.Context, resp *protocol.Response) (protocol.Method, bool) {
	key := protocol.IDKey(resp.ID)
	if key == "" {
		return "", false
	}

	c.mu.Lock()
	call, ok := c.pending[key]
	delete(c.pending, key)
	c.mu.Unlock()

	if !ok {
		return "", false
	}
	if call.fn != nil {
		call.fn(ctx, resp)
	}
	return call.method, true
}
