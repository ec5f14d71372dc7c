// Package server is the capability registry of the MCP server.
//
// Tools, resources and prompts are registered with fluent builders at
// startup and read by the dispatcher afterwards. Listings preserve
// registration order.
//
//	srv := server.New(server.Info{
//	    Name:    "minimal-mcp",
//	    Version: "1.0.0",
//	    Capabilities: server.Capabilities{Tools: true},
//	})
//
// # Tools
//
// A tool's input schema is inferred from the struct its handler accepts.
// Arguments are validated against that schema before the handler runs:
//
//	type EchoInput struct {
//	    Text string `json:"text" jsonschema:"Text to echo back"`
//	}
//
//	srv.Tool("echo").
//	    Description("Echo the provided text").
//	    Handler(server.Typed(func(ctx context.Context, in EchoInput) (string, error) {
//	        return "Echo: " + in.Text, nil
//	    }))
//
// A handler that returns a *ToolError reports a domain failure, which is
// delivered to the peer as tool output with isError set.
//
// # Resources
//
//	srv.Resource("time://current").
//	    Name("Current Time").
//	    MimeType("application/json").
//	    Handler(func(ctx context.Context, uri string, params map[string]string) (string, error) {
//	        return `{"now": true}`, nil
//	    })
//
// # Prompts
//
//	srv.Prompt("greet").
//	    Argument("name", "Name to greet", true).
//	    Handler(func(ctx context.Context, args map[string]string) (*server.PromptResult, error) {
//	        return server.UserMessage("Greeting", "Hello, "+args["name"]), nil
//	    })
package server
