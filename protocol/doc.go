// Package protocol defines the MCP JSON-RPC 2.0 message types and error codes.
//
// This package provides the low-level protocol structures used by minimal-mcp.
// Most users should use the higher-level mcp package instead.
//
// # Messages
//
// Inbound bytes are classified by DecodeMessage into one of three shapes:
//
//	{"jsonrpc":"2.0","id":1,"method":"tools/list"}      // request
//	{"jsonrpc":"2.0","method":"notifications/initialized"} // notification
//	{"jsonrpc":"2.0","id":"roots_request_1","result":{}}   // response to a server request
//
// Ids are kept as raw JSON so they are echoed verbatim, string or number.
//
// # Envelopes
//
// Every reply is a Response carrying exactly one of result or error:
//
//	protocol.NewResponse(req.ID, result)
//	protocol.NewErrorResponse(req.ID, protocol.NewMethodNotFound(req.Method))
//	protocol.ErrorResponseFor(req.ID, err) // any error, non-protocol errors become -32603
//
// A parse error carries a null id because none could be recovered.
//
// # Error Codes
//
//	CodeParseError     = -32700  // Invalid JSON
//	CodeInvalidRequest = -32600  // Invalid Request object
//	CodeMethodNotFound = -32601  // Method not found
//	CodeInvalidParams  = -32602  // Invalid or unknown params
//	CodeInternalError  = -32603  // Internal server error
package protocol
