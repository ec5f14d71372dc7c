package capabilities

import (
	"context"
	"strconv"

	"github.com/felixgeelhaar/minimal-mcp/schema"
	"github.com/felixgeelhaar/minimal-mcp/server"
)

// EchoInput is the argument object of the echo tool.
type EchoInput struct {
	Text string `json:"text" jsonschema:"Text to echo back"`
}

// RegisterEcho registers the echo tool.
func RegisterEcho(srv *server.Server) error {
	return srv.Tool("echo").
		Description("Echo back the input text").
		Handler(server.Typed(func(_ context.Context, in EchoInput) (string, error) {
			return "Echo: " + in.Text, nil
		})).
		Err()
}

// CalculatorInput is the argument object of the calculator tool.
type CalculatorInput struct {
	Operation string  `json:"operation" jsonschema:"The arithmetic operation to perform"`
	A         float64 `json:"a" jsonschema:"First number"`
	B         float64 `json:"b" jsonschema:"Second number"`
}

// Calculate applies the requested operation.
func Calculate(_ context.Context, in CalculatorInput) (string, error) {
	var result float64
	switch in.Operation {
	case "add":
		result = in.A + in.B
	case "subtract":
		result = in.A - in.B
	case "multiply":
		result = in.A * in.B
	case "divide":
		if in.B == 0 {
			return "", server.ToolErrorf("Division by zero")
		}
		result = in.A / in.B
	default:
		return "", server.ToolErrorf("Unknown operation: %s", in.Operation)
	}

	return "Result: " + formatNumber(in.A) + " " + in.Operation + " " + formatNumber(in.B) + " = " + formatNumber(result), nil
}

// RegisterCalculator registers the calculator tool.
func RegisterCalculator(srv *server.Server) error {
	return srv.Tool("calculator").
		Description("Perform basic arithmetic operations").
		Handler(server.Typed(Calculate,
			schema.Enum("operation", "add", "subtract", "multiply", "divide"))).
		Err()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
