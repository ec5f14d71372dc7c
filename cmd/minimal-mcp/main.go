// Command minimal-mcp serves the time resource, the days_between tool and
// the quote-of-the-day prompt over stdio, HTTP or WebSocket.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	mcp "github.com/felixgeelhaar/minimal-mcp"
	"github.com/felixgeelhaar/minimal-mcp/capabilities"
	"github.com/felixgeelhaar/minimal-mcp/config"
	"github.com/felixgeelhaar/minimal-mcp/middleware"
	"github.com/felixgeelhaar/minimal-mcp/transport"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "minimal-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logOut io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slogger, err := newSlogLogger(cfg, logOut)
	if err != nil {
		return err
	}
	logger := middleware.NewSlogLogger(slogger)

	srv := mcp.NewServer(mcp.DefaultInfo())
	if err := capabilities.Register(srv, capabilities.WithDemoTools(cfg.DemoTools)); err != nil {
		return fmt.Errorf("register capabilities: %w", err)
	}

	if cfg.OTel {
		shutdown := installOTel()
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("otel shutdown", middleware.F("error", err.Error()))
			}
		}()
	}

	logger.Info("starting server",
		middleware.F("name", mcp.Name),
		middleware.F("version", mcp.Version),
		middleware.F("transports", cfg.Transports()),
	)
	defer logger.Info("server stopped")

	if cfg.Has(config.TransportStdio) {
		h := mcp.NewHandler(srv,
			mcp.WithLogger(logger),
			mcp.WithMiddleware(buildMiddleware(cfg, logger, false)...),
		)
		t := transport.NewStdio(
			transport.WithStdioLogger(logger),
			transport.WithStdioMaxMessageBytes(int(cfg.MaxMessageBytes)),
		)
		return ignoreCanceled(t.Serve(ctx, h))
	}

	// network transports share one dispatcher and callback table
	h := mcp.NewHandler(srv,
		mcp.WithLogger(logger),
		mcp.WithMiddleware(buildMiddleware(cfg, logger, true)...),
	)

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Has(config.TransportHTTP) {
		opts := []transport.HTTPOption{
			transport.WithPath(cfg.HTTPPath),
			transport.WithHTTPLogger(logger),
			transport.WithHTTPMaxMessageBytes(cfg.MaxMessageBytes),
			transport.WithShutdownTimeout(cfg.ShutdownTimeout),
		}
		if len(cfg.CORSOrigins) > 0 {
			opts = append(opts, transport.WithCORSOrigins(cfg.CORSOrigins...))
		}
		t := transport.NewHTTP(cfg.HTTPAddr, opts...)
		g.Go(func() error {
			logger.Info("http listening", middleware.F("addr", t.Addr()))
			return ignoreCanceled(t.Serve(ctx, h))
		})
	}
	if cfg.Has(config.TransportWebSocket) {
		t := transport.NewWebSocket(cfg.WSAddr,
			transport.WithWebSocketLogger(logger),
			transport.WithWebSocketMaxMessageBytes(cfg.MaxMessageBytes),
		)
		g.Go(func() error {
			logger.Info("websocket listening", middleware.F("addr", t.Addr()))
			return ignoreCanceled(t.Serve(ctx, h))
		})
	}
	return g.Wait()
}

// buildMiddleware assembles the stack. Authentication only applies to
// network transports.
func buildMiddleware(cfg *config.Config, logger middleware.Logger, network bool) []middleware.Middleware {
	stack := middleware.DefaultStack(logger, cfg.HandlerTimeout)
	stack = append(stack, middleware.SizeLimit(cfg.MaxMessageBytes, logger))

	if cfg.OTel {
		stack = append(stack, middleware.OTel(
			middleware.WithTracerProvider(otel.GetTracerProvider()),
			middleware.WithMeterProvider(otel.GetMeterProvider()),
			middleware.WithOTelServiceName(mcp.Name),
		))
	}
	if cfg.RateLimit > 0 {
		stack = append(stack, middleware.RateLimit(cfg.RateLimit, cfg.RateBurst,
			middleware.WithRateLimitLogger(logger),
		))
	}
	if network && cfg.AuthToken != "" {
		stack = append(stack, middleware.Auth(middleware.BearerToken(cfg.AuthToken),
			middleware.WithAuthLogger(logger),
		))
	}
	return stack
}

func newSlogLogger(cfg *config.Config, out io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler).With("service", mcp.Name), nil
}

// installOTel registers sdk providers globally and returns their shutdown.
func installOTel() func(context.Context) error {
	tp := sdktrace.NewTracerProvider()
	mp := sdkmetric.NewMeterProvider()
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
