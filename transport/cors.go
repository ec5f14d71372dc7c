package transport

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig configures CORS behavior for the HTTP endpoint.
type CORSConfig struct {
	// AllowOrigins lists exact origins, or "*" for any.
	AllowOrigins []string

	// AllowMethods defaults to POST, OPTIONS.
	AllowMethods []string

	// AllowHeaders defaults to Content-Type, Authorization, X-Request-ID.
	AllowHeaders []string

	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Default 86400.
	MaxAge int
}

func (c *CORSConfig) applyDefaults() {
	if len(c.AllowMethods) == 0 {
		c.AllowMethods = []string{http.MethodPost, http.MethodOptions}
	}
	if len(c.AllowHeaders) == 0 {
		c.AllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if c.MaxAge == 0 {
		c.MaxAge = 86400
	}
}

// allowedOrigin returns the value for Access-Control-Allow-Origin, or "" when
// the origin is not allowed.
func (c *CORSConfig) allowedOrigin(origin string) string {
	if slices.Contains(c.AllowOrigins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(c.AllowOrigins, origin) {
		return origin
	}
	return ""
}

// CORSHandler wraps next with CORS headers and preflight handling.
func CORSHandler(config CORSConfig, next http.Handler) http.Handler {
	config.applyDefaults()
	methods := strings.Join(config.AllowMethods, ", ")
	headers := strings.Join(config.AllowHeaders, ", ")
	maxAge := strconv.Itoa(config.MaxAge)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allow := config.allowedOrigin(r.Header.Get("Origin"))
		if allow == "" {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", allow)
		if allow != "*" {
			w.Header().Add("Vary", "Origin")
		}
		if config.AllowCredentials {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)
			w.Header().Set("Access-Control-Max-Age", maxAge)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// WithCORS configures CORS for the HTTP transport.
func WithCORS(config CORSConfig) HTTPOption {
	return func(h *HTTP) {
		h.corsConfig = &config
	}
}

// WithCORSOrigins enables CORS for the given origins with default settings.
// No origins leaves CORS disabled.
func WithCORSOrigins(origins ...string) HTTPOption {
	return func(h *HTTP) {
		if len(origins) == 0 {
			return
		}
		h.corsConfig = &CORSConfig{AllowOrigins: origins}
	}
}
