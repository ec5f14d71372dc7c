package server

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// ResourceContent is one entry of a resources/read result.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}

// ReadResult is the result payload of resources/read.
type ReadResult struct {
	Contents []ResourceContent `json:"contents"`
}

// ResourceHandler produces the text of a resource. params holds values bound
// from the URI template.
type ResourceHandler func(ctx context.Context, uri string, params map[string]string) (string, error)

// Resource represents a readable resource exposed via MCP.
type Resource struct {
	uriTemplate string
	name        string
	description string
	mimeType    string
	handler     ResourceHandler

	uriRegex   *regexp.Regexp
	paramNames []string
}

// ResourceInfo is the descriptor advertised by resources/list.
type ResourceInfo struct {
	URITemplate string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceBuilder provides a fluent API for building resources.
type ResourceBuilder struct {
	resource *Resource
	server   *Server
	err      error
}

// Name sets the human-readable name of the resource.
func (b *ResourceBuilder) Name(name string) *ResourceBuilder {
	if b.err != nil {
		return b
	}
	b.resource.name = name
	return b
}

// Description sets the resource description.
func (b *ResourceBuilder) Description(desc string) *ResourceBuilder {
	if b.err != nil {
		return b
	}
	b.resource.description = desc
	return b
}

// MimeType sets the MIME type of the resource content.
func (b *ResourceBuilder) MimeType(mimeType string) *ResourceBuilder {
	if b.err != nil {
		return b
	}
	b.resource.mimeType = mimeType
	return b
}

// Handler sets the resource handler function and registers the resource.
func (b *ResourceBuilder) Handler(fn ResourceHandler) *ResourceBuilder {
	if b.err != nil {
		return b
	}
	if fn == nil {
		b.err = fmt.Errorf("resource %s: nil handler", b.resource.uriTemplate)
		return b
	}

	b.resource.handler = fn

	if err := b.resource.compileTemplate(); err != nil {
		b.err = fmt.Errorf("resource %s: %w", b.resource.uriTemplate, err)
		return b
	}

	b.server.registerResource(b.resource)
	return b
}

// Err returns the first error encountered while building.
func (b *ResourceBuilder) Err() error {
	return b.err
}

var templateParam = regexp.MustCompile(`\{([^}]+)\}`)

// compileTemplate converts a URI template to a regex for matching.
func (r *Resource) compileTemplate() error {
	matches := templateParam.FindAllStringSubmatch(r.uriTemplate, -1)

	r.paramNames = make([]string, 0, len(matches))
	for _, match := range matches {
		r.paramNames = append(r.paramNames, match[1])
	}

	pattern := regexp.QuoteMeta(r.uriTemplate)
	pattern = strings.ReplaceAll(pattern, `\{`, "{")
	pattern = strings.ReplaceAll(pattern, `\}`, "}")
	pattern = templateParam.ReplaceAllString(pattern, `([^/]+)`)

	var err error
	r.uriRegex, err = regexp.Compile("^" + pattern + "$")
	return err
}

func (r *Resource) match(uri string) (map[string]string, bool) {
	if r.uriRegex == nil {
		return nil, false
	}
	m := r.uriRegex.FindStringSubmatch(uri)
	if m == nil {
		return nil, false
	}

	params := make(map[string]string, len(r.paramNames))
	for i, name := range r.paramNames {
		params[name] = m[i+1]
	}
	return params, true
}

// Read executes the resource handler for uri and wraps its text.
func (r *Resource) Read(ctx context.Context, uri string) (*ReadResult, error) {
	params, ok := r.match(uri)
	if !ok {
		return nil, fmt.Errorf("URI %q does not match template %q", uri, r.uriTemplate)
	}

	text, err := r.handler(ctx, uri, params)
	if err != nil {
		return nil, err
	}

	return &ReadResult{
		Contents: []ResourceContent{{
			URI:      uri,
			MimeType: r.mimeType,
			Text:     text,
		}},
	}, nil
}
