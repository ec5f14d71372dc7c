package protocol

import (
	"errors"
	"fmt"
	"strconv"
)

// JSON-RPC 2.0 reserved codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Codes raised by middleware rather than by the dispatcher.
const (
	CodeUnauthorized = -32002
	CodeRateLimited  = -32003
)

var codeNames = map[int]string{
	CodeParseError:     "parse error",
	CodeInvalidRequest: "invalid request",
	CodeMethodNotFound: "method not found",
	CodeInvalidParams:  "invalid params",
	CodeInternalError:  "internal error",
	CodeUnauthorized:   "unauthorized",
	CodeRateLimited:    "rate limited",
}

// Error is the error member of an error envelope. Handlers return it as a
// plain error; the envelope builder recovers it with errors.As.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	name, ok := codeNames[e.Code]
	if !ok {
		name = "code " + strconv.Itoa(e.Code)
	}
	return "jsonrpc " + name + ": " + e.Message
}

// Is matches any *Error with the same code, so errors.Is(err,
// NewInvalidParams("")) tests the category only.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Errorf builds an error with the given code and a formatted message.
func Errorf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code carried by err, or zero when err holds no *Error.
func CodeOf(err error) int {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	return 0
}

func NewParseError(msg string) *Error     { return &Error{Code: CodeParseError, Message: msg} }
func NewInvalidRequest(msg string) *Error { return &Error{Code: CodeInvalidRequest, Message: msg} }
func NewInvalidParams(msg string) *Error  { return &Error{Code: CodeInvalidParams, Message: msg} }
func NewUnauthorized(msg string) *Error   { return &Error{Code: CodeUnauthorized, Message: msg} }
func NewRateLimited(msg string) *Error    { return &Error{Code: CodeRateLimited, Message: msg} }

// NewMethodNotFound reports an unrouted method by name.
func NewMethodNotFound(method string) *Error {
	return Errorf(CodeMethodNotFound, "Method not found: %s", method)
}

// NewInternalError wraps an unexpected failure. The detail is prefixed with
// "Internal error: ".
func NewInternalError(detail string) *Error {
	return Errorf(CodeInternalError, "Internal error: %s", detail)
}
