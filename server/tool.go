package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/minimal-mcp/protocol"
	"github.com/felixgeelhaar/minimal-mcp/schema"
)

// ToolInfo is the descriptor advertised by tools/list.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema *schema.Schema `json:"inputSchema"`
}

// ToolFunc is the uniform tool capability: raw arguments in, text out.
type ToolFunc func(ctx context.Context, args json.RawMessage) (string, error)

// ToolHandler pairs a ToolFunc with the schema its arguments must satisfy.
type ToolHandler struct {
	input *schema.Input
	fn    ToolFunc
	err   error
}

// Typed adapts a handler taking a decoded input struct. The input schema is
// inferred from T.
func Typed[T any](fn func(ctx context.Context, input T) (string, error), opts ...schema.Option) ToolHandler {
	input, err := schema.For[T](opts...)
	if err != nil {
		return ToolHandler{err: err}
	}

	return ToolHandler{
		input: input,
		fn: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in T
			if len(args) > 0 {
				if err := json.Unmarshal(args, &in); err != nil {
					return "", protocol.NewInvalidParams(fmt.Sprintf("failed to parse arguments: %v", err))
				}
			}
			return fn(ctx, in)
		},
	}
}

// ToolError is a failure the peer should read as tool output rather than as a
// protocol fault, such as an argument that does not parse.
type ToolError struct {
	Message string
}

func (e *ToolError) Error() string {
	return e.Message
}

// ToolErrorf formats a ToolError.
func ToolErrorf(format string, args ...any) error {
	return &ToolError{Message: fmt.Sprintf(format, args...)}
}

// IsToolError reports whether err carries a ToolError and returns its text.
func IsToolError(err error) (string, bool) {
	var te *ToolError
	if errors.As(err, &te) {
		return te.Message, true
	}
	return "", false
}

// Tool represents a callable function exposed via MCP.
type Tool struct {
	name        string
	description string
	input       *schema.Input
	fn          ToolFunc
}

// Name returns the tool name.
func (t *Tool) Name() string {
	return t.name
}

// ToolBuilder provides a fluent API for building tools.
type ToolBuilder struct {
	tool   *Tool
	server *Server
	err    error
}

// Description sets the tool description.
func (b *ToolBuilder) Description(desc string) *ToolBuilder {
	if b.err != nil {
		return b
	}
	b.tool.description = desc
	return b
}

// Handler sets the tool handler and registers the tool.
func (b *ToolBuilder) Handler(h ToolHandler) *ToolBuilder {
	if b.err != nil {
		return b
	}
	if h.err != nil {
		b.err = fmt.Errorf("tool %s: %w", b.tool.name, h.err)
		return b
	}
	if h.fn == nil {
		b.err = fmt.Errorf("tool %s: nil handler", b.tool.name)
		return b
	}

	b.tool.input = h.input
	b.tool.fn = h.fn
	b.server.registerTool(b.tool)
	return b
}

// Err returns the first error encountered while building.
func (b *ToolBuilder) Err() error {
	return b.err
}

// Execute validates args against the tool schema and runs the handler.
func (t *Tool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	if t.input != nil {
		if err := t.input.Validate(args); err != nil {
			return "", protocol.NewInvalidParams(fmt.Sprintf("Invalid arguments for tool %s: %v", t.name, err))
		}
	}
	return t.fn(ctx, args)
}

// TextContent is a text content block.
type TextContent struct {
	Type string `json:"type"` // Always "text"
	Text string `json:"text"`
}

// NewTextContent returns a text content block.
func NewTextContent(text string) TextContent {
	return TextContent{Type: "text", Text: text}
}

// ToolResult is the result payload of tools/call.
type ToolResult struct {
	Content []TextContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// NewToolResult wraps text in a single text block.
func NewToolResult(text string) *ToolResult {
	return &ToolResult{Content: []TextContent{NewTextContent(text)}}
}

// NewToolErrorResult wraps the text of a tool domain failure.
func NewToolErrorResult(text string) *ToolResult {
	return &ToolResult{Content: []TextContent{NewTextContent(text)}, IsError: true}
}
