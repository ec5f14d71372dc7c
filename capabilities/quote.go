package capabilities

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/minimal-mcp/server"
)

// RegisterQuotePrompt registers the quote-of-the-day prompt.
func RegisterQuotePrompt(srv *server.Server) error {
	return srv.Prompt("quote-of-the-day").
		Description("Generate a quote of the day impersonating a character from a movie").
		Argument("movie", "Name of the movie to quote from", true).
		Argument("character", "Name of the character to impersonate", true).
		Handler(func(_ context.Context, args map[string]string) (*server.PromptResult, error) {
			text := fmt.Sprintf("Print a short and inspiring quote from %s by %s. Don't add anything else.",
				args["movie"], args["character"])
			return server.UserMessage("Quote of the day prompt", text), nil
		}).
		Err()
}
