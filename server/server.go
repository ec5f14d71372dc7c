package server

import (
	"sync"

	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

// Info contains server metadata exposed to clients.
type Info struct {
	Name         string
	Version      string
	Capabilities Capabilities
}

// Capabilities declares what features the server supports.
type Capabilities struct {
	Tools     bool
	Resources bool
	Prompts   bool

	// RootsListChanged advertises that the server reacts to roots changes
	// by querying the peer with roots/list.
	RootsListChanged bool
}

// Manifest represents the server manifest returned to clients.
type Manifest struct {
	Name            string
	Version         string
	ProtocolVersion string
	Capabilities    Capabilities
}

// Option configures a Server.
type Option func(*Server)

// Server is the capability registry. Capabilities are registered at startup
// through the builders and only read afterwards.
type Server struct {
	mu sync.RWMutex

	info      Info
	tools     map[string]*Tool
	resources map[string]*Resource
	prompts   map[string]*Prompt

	// registration order, so listings are stable
	toolOrder     []string
	resourceOrder []string
	promptOrder   []string
}

// New creates a new registry with the given info and options.
func New(info Info, opts ...Option) *Server {
	s := &Server{
		info:      info,
		tools:     make(map[string]*Tool),
		resources: make(map[string]*Resource),
		prompts:   make(map[string]*Prompt),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Info returns the server info.
func (s *Server) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Manifest returns the server manifest for MCP initialization.
func (s *Server) Manifest() Manifest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Manifest{
		Name:            s.info.Name,
		Version:         s.info.Version,
		ProtocolVersion: protocol.MCPVersion,
		Capabilities:    s.info.Capabilities,
	}
}

// Tool starts building a new tool with the given name.
func (s *Server) Tool(name string) *ToolBuilder {
	return &ToolBuilder{
		tool: &Tool{
			name: name,
		},
		server: s,
	}
}

// Tools returns descriptors for all registered tools.
func (s *Server) Tools() []ToolInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ToolInfo, 0, len(s.toolOrder))
	for _, name := range s.toolOrder {
		t := s.tools[name]
		result = append(result, ToolInfo{
			Name:        t.name,
			Description: t.description,
			InputSchema: t.input.Schema(),
		})
	}
	return result
}

// GetTool retrieves a tool by name.
func (s *Server) GetTool(name string) (*Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tools[name]
	return t, ok
}

func (s *Server) registerTool(t *Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tools[t.name]; !exists {
		s.toolOrder = append(s.toolOrder, t.name)
	}
	s.tools[t.name] = t
}

// Resource starts building a new resource with the given URI template.
func (s *Server) Resource(uriTemplate string) *ResourceBuilder {
	return &ResourceBuilder{
		resource: &Resource{
			uriTemplate: uriTemplate,
		},
		server: s,
	}
}

// Resources returns descriptors for all registered resources.
func (s *Server) Resources() []ResourceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ResourceInfo, 0, len(s.resourceOrder))
	for _, uri := range s.resourceOrder {
		r := s.resources[uri]
		result = append(result, ResourceInfo{
			URITemplate: r.uriTemplate,
			Name:        r.name,
			Description: r.description,
			MimeType:    r.mimeType,
		})
	}
	return result
}

// FindResourceForURI finds the first registered resource matching uri.
func (s *Server) FindResourceForURI(uri string) (*Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tmpl := range s.resourceOrder {
		r := s.resources[tmpl]
		if _, ok := r.match(uri); ok {
			return r, true
		}
	}
	return nil, false
}

func (s *Server) registerResource(r *Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.resources[r.uriTemplate]; !exists {
		s.resourceOrder = append(s.resourceOrder, r.uriTemplate)
	}
	s.resources[r.uriTemplate] = r
}

// Prompt starts building a new prompt with the given name.
func (s *Server) Prompt(name string) *PromptBuilder {
	return &PromptBuilder{
		prompt: &Prompt{
			name: name,
		},
		server: s,
	}
}

// Prompts returns descriptors for all registered prompts.
func (s *Server) Prompts() []PromptInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]PromptInfo, 0, len(s.promptOrder))
	for _, name := range s.promptOrder {
		p := s.prompts[name]
		result = append(result, PromptInfo{
			Name:        p.name,
			Description: p.description,
			Arguments:   p.arguments,
		})
	}
	return result
}

// GetPrompt retrieves a prompt by name.
func (s *Server) GetPrompt(name string) (*Prompt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prompts[name]
	return p, ok
}

func (s *Server) registerPrompt(p *Prompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.prompts[p.name]; !exists {
		s.promptOrder = append(s.promptOrder, p.name)
	}
	s.prompts[p.name] = p
}
