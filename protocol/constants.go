package protocol

// MCPVersion is the protocol revision advertised during initialize.
const MCPVersion = "2025-03-26"

// Method is an MCP method name.
type Method string

// Methods served by this implementation.
const (
	MethodInitialize    Method = "initialize"
	MethodPing          Method = "ping"
	MethodResourcesList Method = "resources/list"
	MethodResourcesRead Method = "resources/read"
	MethodToolsList     Method = "tools/list"
	MethodToolsCall     Method = "tools/call"
	MethodPromptsList   Method = "prompts/list"
	MethodPromptsGet    Method = "prompts/get"
)

// Methods the server sends to the peer.
const (
	MethodRootsList Method = "roots/list"
)

// Notification methods.
const (
	MethodInitialized      Method = "notifications/initialized"
	MethodRootsListChanged Method = "notifications/roots/list_changed"
	MethodCancelled        Method = "notifications/cancelled"
)

// Methods returns every request method the dispatcher routes, in a stable order.
func Methods() []Method {
	return []Method{
		MethodInitialize,
		MethodPing,
		MethodResourcesList,
		MethodResourcesRead,
		MethodToolsList,
		MethodToolsCall,
		MethodPromptsList,
		MethodPromptsGet,
	}
}
