// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Transport names accepted in MCP_TRANSPORT.
const (
	TransportStdio     = "stdio"
	TransportHTTP      = "http"
	TransportWebSocket = "websocket"
)

// Config holds every setting of the server binary. Defaults are provided
// via struct tags.
type Config struct {
	// Transport lists the adapters to run, comma separated. ENV: MCP_TRANSPORT
	Transport string `env:"MCP_TRANSPORT,default=stdio"`

	HTTPAddr string `env:"MCP_HTTP_ADDR,default=:8000"`
	HTTPPath string `env:"MCP_HTTP_PATH,default=/mcp/"`
	WSAddr   string `env:"MCP_WS_ADDR,default=:8001"`

	LogLevel  string `env:"MCP_LOG_LEVEL,default=debug"`
	LogFormat string `env:"MCP_LOG_FORMAT,default=text"`

	HandlerTimeout  time.Duration `env:"MCP_HANDLER_TIMEOUT,default=30s"`
	MaxMessageBytes int64         `env:"MCP_MAX_MESSAGE_BYTES,default=1048576"`

	// RateLimit is in requests per second; zero disables limiting.
	RateLimit int `env:"MCP_RATE_LIMIT,default=0"`
	RateBurst int `env:"MCP_RATE_BURST,default=0"`

	// AuthToken, when set, is required as a bearer token on network transports.
	AuthToken   string   `env:"MCP_AUTH_TOKEN"`
	CORSOrigins []string `env:"MCP_CORS_ORIGINS"`

	OTel      bool `env:"MCP_OTEL,default=false"`
	DemoTools bool `env:"MCP_DEMO_TOOLS,default=false"`

	ShutdownTimeout time.Duration `env:"MCP_SHUTDOWN_TIMEOUT,default=5s"`
}

// Load reads an optional .env file from the working directory, then decodes
// the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv decodes the environment without touching .env files.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Transports returns the configured adapters.
func (c *Config) Transports() []string {
	var out []string
	for _, name := range strings.Split(c.Transport, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

// Has reports whether the named transport is enabled.
func (c *Config) Has(transport string) bool {
	return slices.Contains(c.Transports(), transport)
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	transports := c.Transports()
	if len(transports) == 0 {
		errs = append(errs, errors.New("MCP_TRANSPORT: no transport configured"))
	}
	for _, name := range transports {
		switch name {
		case TransportStdio, TransportHTTP, TransportWebSocket:
		default:
			errs = append(errs, fmt.Errorf("MCP_TRANSPORT: unknown transport %q", name))
		}
	}
	if slices.Contains(transports, TransportStdio) && len(transports) > 1 {
		errs = append(errs, errors.New("MCP_TRANSPORT: stdio cannot be combined with other transports"))
	}

	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("MCP_LOG_FORMAT: unknown format %q", c.LogFormat))
	}

	if !strings.HasPrefix(c.HTTPPath, "/") {
		errs = append(errs, fmt.Errorf("MCP_HTTP_PATH: %q must start with /", c.HTTPPath))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, errors.New("MCP_MAX_MESSAGE_BYTES: must be positive"))
	}
	if c.HandlerTimeout < 0 {
		errs = append(errs, errors.New("MCP_HANDLER_TIMEOUT: must not be negative"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("MCP_SHUTDOWN_TIMEOUT: must be positive"))
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		errs = append(errs, errors.New("MCP_RATE_LIMIT/MCP_RATE_BURST: must not be negative"))
	}
	if c.RateLimit > 0 && c.RateBurst == 0 {
		errs = append(errs, errors.New("MCP_RATE_BURST: must be positive when MCP_RATE_LIMIT is set"))
	}

	return errors.Join(errs...)
}

// SlogLevel maps LogLevel onto a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("MCP_LOG_LEVEL: unknown level %q", c.LogLevel)
	}
	return level, nil
}
