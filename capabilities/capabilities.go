// Package capabilities holds the concrete tools, resources and prompts the
// server exposes. Each Register function only talks to the registry through
// its builders, so the dispatcher never changes when one is added.
package capabilities

import (
	"errors"
	"time"

	"github.com/felixgeelhaar/minimal-mcp/server"
)

// Option configures Register.
type Option func(*options)

type options struct {
	now       func() time.Time
	demoTools bool
}

// WithClock replaces time.Now for the time resource.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithDemoTools also registers the echo and calculator tools.
func WithDemoTools(enabled bool) Option {
	return func(o *options) {
		o.demoTools = enabled
	}
}

// Register adds the standard capability set to srv.
func Register(srv *server.Server, opts ...Option) error {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	errs := []error{
		RegisterTimeResource(srv, o.now),
		RegisterDaysBetween(srv),
		RegisterQuotePrompt(srv),
	}
	if o.demoTools {
		errs = append(errs, RegisterEcho(srv), RegisterCalculator(srv))
	}
	return errors.Join(errs...)
}
