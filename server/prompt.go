package server

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

// PromptMessage represents a message in a prompt result.
type PromptMessage struct {
	Role    string      `json:"role"` // "user" or "assistant"
	Content TextContent `json:"content"`
}

// PromptResult is the result payload of prompts/get.
type PromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// UserMessage returns a single user message prompt result.
func UserMessage(description, text string) *PromptResult {
	return &PromptResult{
		Description: description,
		Messages: []PromptMessage{{
			Role:    "user",
			Content: NewTextContent(text),
		}},
	}
}

// PromptArgument describes an argument for a prompt.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// PromptHandler is the function signature for prompt handlers.
type PromptHandler func(ctx context.Context, args map[string]string) (*PromptResult, error)

// Prompt represents a prompt template exposed via MCP.
type Prompt struct {
	name        string
	description string
	arguments   []PromptArgument
	handler     PromptHandler
}

// PromptInfo is the descriptor advertised by prompts/list.
type PromptInfo struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments"`
}

// PromptBuilder provides a fluent API for building prompts.
type PromptBuilder struct {
	prompt *Prompt
	server *Server
	err    error
}

// Description sets the prompt description.
func (b *PromptBuilder) Description(desc string) *PromptBuilder {
	if b.err != nil {
		return b
	}
	b.prompt.description = desc
	return b
}

// Argument adds an argument to the prompt.
func (b *PromptBuilder) Argument(name, description string, required bool) *PromptBuilder {
	if b.err != nil {
		return b
	}
	b.prompt.arguments = append(b.prompt.arguments, PromptArgument{
		Name:        name,
		Description: description,
		Required:    required,
	})
	return b
}

// Handler sets the prompt handler function and registers the prompt.
func (b *PromptBuilder) Handler(fn PromptHandler) *PromptBuilder {
	if b.err != nil {
		return b
	}
	if fn == nil {
		b.err = fmt.Errorf("prompt %s: nil handler", b.prompt.name)
		return b
	}

	if b.prompt.arguments == nil {
		b.prompt.arguments = []PromptArgument{}
	}
	b.prompt.handler = fn
	b.server.registerPrompt(b.prompt)
	return b
}

// Err returns the first error encountered while building.
func (b *PromptBuilder) Err() error {
	return b.err
}

// Get checks required arguments and renders the prompt.
func (p *Prompt) Get(ctx context.Context, args map[string]string) (*PromptResult, error) {
	for _, arg := range p.arguments {
		if arg.Required && args[arg.Name] == "" {
			return nil, protocol.NewInvalidParams(fmt.Sprintf("missing required argument: %s", arg.Name))
		}
	}

	return p.handler(ctx, args)
}
