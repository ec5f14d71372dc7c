package transport

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/minimal-mcp/middleware"
	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

// Process runs one raw inbound message through handler and returns the
// envelope to write back, or nil when nothing must be written. Every adapter
// funnels its messages through here.
func Process(ctx context.Context, handler Handler, data []byte, logger middleware.Logger) (resp *protocol.Response) {
	if logger == nil {
		logger = middleware.NopLogger{}
	}

	msg, perr := protocol.DecodeMessage(data)
	if perr != nil {
		logger.Warn("rejected message", middleware.F("code", perr.Code), middleware.F("error", perr.Message))
		var id []byte
		if msg != nil {
			id = msg.ID
		}
		return protocol.NewErrorResponse(id, perr)
	}

	if msg.IsResponse() {
		if rh, ok := handler.(ResponseHandler); ok {
			rh.HandleResponse(ctx, msg.AsResponse())
		} else {
			logger.Debug("dropped response", middleware.F("id", string(msg.ID)))
		}
		return nil
	}

	req := msg.AsRequest()
	notification := req.IsNotification()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panic", middleware.F("method", req.Method), middleware.F("panic", fmt.Sprint(r)))
			if notification {
				resp = nil
				return
			}
			resp = protocol.NewErrorResponse(req.ID, protocol.NewInternalError(fmt.Sprint(r)))
		}
	}()

	out, err := handler.HandleRequest(ctx, req)
	if notification {
		if err != nil {
			logger.Warn("notification failed", middleware.F("method", req.Method), middleware.F("error", err.Error()))
		}
		return nil
	}
	if err != nil {
		return protocol.ErrorResponseFor(req.ID, err)
	}
	return out
}
