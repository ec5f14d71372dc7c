package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// JSONRPCVersion is the JSON-RPC protocol version.
const JSONRPCVersion = "2.0"

// NullID is the id echoed when the inbound id could not be recovered.
var NullID = json.RawMessage("null")

// Request represents a JSON-RPC 2.0 request, or a notification when ID is empty.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification returns true if this request has no ID (is a notification).
// An explicit null id counts as absent.
func (r *Request) IsNotification() bool {
	return isAbsentID(r.ID)
}

// NewRequest builds an outbound request with the given id and params.
func NewRequest(id json.RawMessage, method Method, params any) (*Request, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	return &Request{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Method:  string(method),
		Params:  raw,
	}, nil
}

// Response represents a JSON-RPC 2.0 response. Result and Error are mutually
// exclusive and the id is always present on the wire.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewResponse creates a successful response.
func NewResponse(id json.RawMessage, result any) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse creates an error response. A missing id is rendered as null.
func NewErrorResponse(id json.RawMessage, err *Error) *Response {
	if isAbsentID(id) {
		id = NullID
	}
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   err,
	}
}

// ErrorResponseFor wraps any handler error into an error response.
func ErrorResponseFor(id json.RawMessage, err error) *Response {
	return NewErrorResponse(id, AsError(err))
}

// AsError converts err into a protocol error. Errors that are not already
// protocol errors become internal errors.
func AsError(err error) *Error {
	var mcpErr *Error
	if errors.As(err, &mcpErr) {
		return mcpErr
	}
	return NewInternalError(err.Error())
}

// Message is any inbound JSON-RPC message: request, notification or response.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// IsResponse reports whether the message is a reply to a request we sent.
func (m *Message) IsResponse() bool {
	return m.Method == "" && (len(m.Result) > 0 || m.Error != nil)
}

// IsNotification reports whether the message is a notification.
func (m *Message) IsNotification() bool {
	return m.Method != "" && isAbsentID(m.ID)
}

// AsRequest returns the message as a Request. Nil for responses.
func (m *Message) AsRequest() *Request {
	if m.Method == "" {
		return nil
	}
	return &Request{
		JSONRPC: m.JSONRPC,
		ID:      m.ID,
		Method:  m.Method,
		Params:  m.Params,
	}
}

// AsResponse returns the message as a Response. Nil for requests.
func (m *Message) AsResponse() *Response {
	if !m.IsResponse() {
		return nil
	}
	resp := &Response{
		JSONRPC: m.JSONRPC,
		ID:      m.ID,
		Error:   m.Error,
	}
	if len(m.Result) > 0 {
		resp.Result = m.Result
	}
	return resp
}

// DecodeMessage parses raw bytes into a Message. The returned error is a
// parse error for malformed JSON and an invalid request error for JSON that
// is not a usable message. On invalid request the message is still returned
// when its id could be recovered, so the caller can echo it.
func DecodeMessage(data []byte) (*Message, *Error) {
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, NewParseError("Parse error")
	}
	if data[0] != '{' {
		return nil, NewInvalidRequest("Invalid Request: expected a JSON object")
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		if !validID(msg.ID) {
			msg.ID = nil
		}
		return &msg, NewInvalidRequest(fmt.Sprintf("Invalid Request: %v", err))
	}
	if !validID(msg.ID) {
		return nil, NewInvalidRequest("Invalid Request: id must be a string or number")
	}
	if msg.Method == "" && !msg.IsResponse() {
		return &msg, NewInvalidRequest("Invalid Request: missing method")
	}
	return &msg, nil
}

// IDKey returns a canonical form of id suitable for map keys and equality.
// The string "1" and the number 1 yield different keys.
func IDKey(id json.RawMessage) string {
	if isAbsentID(id) {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, id); err != nil {
		return string(id)
	}
	return buf.String()
}

// StringID encodes s as a JSON string id.
func StringID(s string) json.RawMessage {
	raw, _ := json.Marshal(s)
	return raw
}

func isAbsentID(id json.RawMessage) bool {
	trimmed := bytes.TrimSpace(id)
	return len(trimmed) == 0 || bytes.Equal(trimmed, NullID)
}

func validID(id json.RawMessage) bool {
	trimmed := bytes.TrimSpace(id)
	if isAbsentID(trimmed) {
		return true
	}
	switch trimmed[0] {
	case '"', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return true
	default:
		return false
	}
}
