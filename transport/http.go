package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/elnormous/contenttype"

	"github.com/felixgeelhaar/minimal-mcp/middleware"
	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

// DefaultHTTPPath is the single endpoint served by the HTTP transport.
const DefaultHTTPPath = "/mcp/"

// bodyMediaTypes are read as JSON. Clients that omit the header or send
// curl's form default still get a JSON-RPC answer.
var bodyMediaTypes = []contenttype.MediaType{
	contenttype.NewMediaType("application/json"),
	contenttype.NewMediaType("text/plain"),
	contenttype.NewMediaType("application/x-www-form-urlencoded"),
}

// emptyBody is written when a message produces nothing to reply.
var emptyBody = []byte("{}")

// HTTP serves one JSON-RPC message per POST body on a single path.
type HTTP struct {
	addr         string
	path         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	maxBytes     int64
	logger       middleware.Logger

	corsConfig      *CORSConfig
	shutdownTimeout time.Duration
	drainDelay      time.Duration

	mu         sync.RWMutex
	listenAddr string
	server     *http.Server
	shutdown   *ShutdownManager
}

// HTTPOption configures the HTTP transport.
type HTTPOption func(*HTTP)

// WithReadTimeout sets the read timeout for HTTP requests.
func WithReadTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.readTimeout = d
	}
}

// WithWriteTimeout sets the write timeout for HTTP responses.
func WithWriteTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.writeTimeout = d
	}
}

// WithPath sets the endpoint path.
func WithPath(path string) HTTPOption {
	return func(h *HTTP) {
		if path != "" {
			h.path = path
		}
	}
}

// WithHTTPMaxMessageBytes bounds the request body size.
func WithHTTPMaxMessageBytes(n int64) HTTPOption {
	return func(h *HTTP) {
		if n > 0 {
			h.maxBytes = n
		}
	}
}

// WithHTTPLogger sets the logger.
func WithHTTPLogger(l middleware.Logger) HTTPOption {
	return func(h *HTTP) {
		h.logger = l
	}
}

// NewHTTP creates a new HTTP transport.
func NewHTTP(addr string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		addr:            addr,
		path:            DefaultHTTPPath,
		readTimeout:     30 * time.Second,
		writeTimeout:    30 * time.Second,
		maxBytes:        DefaultMaxMessageBytes,
		logger:          middleware.NopLogger{},
		shutdownTimeout: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(h)
	}

	h.shutdown = NewShutdownManager(ShutdownConfig{
		Timeout:    h.shutdownTimeout,
		DrainDelay: h.drainDelay,
	})

	return h
}

// Addr returns the configured address.
func (h *HTTP) Addr() string {
	return h.addr
}

// ListenAddr returns the actual address the server is listening on.
func (h *HTTP) ListenAddr() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.listenAddr
}

// Serve starts the HTTP server and handles requests until ctx is canceled.
func (h *HTTP) Serve(ctx context.Context, handler Handler) error {
	listener, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	h.mu.Lock()
	h.listenAddr = listener.Addr().String()
	h.server = &http.Server{
		Handler:      h.Handler(handler),
		ReadTimeout:  h.readTimeout,
		WriteTimeout: h.writeTimeout,
	}
	srv := h.server
	h.mu.Unlock()

	h.logger.Info("http transport listening", middleware.F("addr", h.ListenAddr()), middleware.F("path", h.path))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout+h.drainDelay)
		defer cancel()
		if err := h.shutdown.Shutdown(shutdownCtx); err != nil {
			h.logger.Warn("in-flight requests did not drain", middleware.F("error", err.Error()))
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Handler returns the http.Handler serving the MCP endpoint. It is exposed
// so the endpoint can be mounted on an existing server or exercised with
// httptest.
func (h *HTTP) Handler(handler Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(h.path, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != h.path {
			http.NotFound(w, r)
			return
		}
		h.handleMCP(w, r, handler)
	})

	if h.corsConfig != nil {
		return CORSHandler(*h.corsConfig, mux)
	}
	return mux
}

// httpPeer captures a server-initiated request so it can be returned as the
// response body.
type httpPeer struct {
	mu  sync.Mutex
	req *protocol.Request
}

func (p *httpPeer) SendRequest(req *protocol.Request) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.req != nil {
		return errors.New("http: a request was already sent on this exchange")
	}
	p.req = req
	return nil
}

func (p *httpPeer) captured() *protocol.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.req
}

func (h *HTTP) handleMCP(w http.ResponseWriter, r *http.Request, handler Handler) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if !h.shutdown.TrackRequest() {
		w.Header().Set("Connection", "close")
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.shutdown.CompleteRequest()

	if !acceptsBody(r) {
		h.writeJSONStatus(w, http.StatusUnsupportedMediaType, protocol.NewErrorResponse(nil,
			protocol.NewInvalidRequest("Invalid Request: unsupported content type "+r.Header.Get("Content-Type"))))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeJSON(w, protocol.NewErrorResponse(nil,
				protocol.NewInvalidRequest(fmt.Sprintf("Invalid Request: message exceeds %d bytes", h.maxBytes))))
			return
		}
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	peer := &httpPeer{}
	ctx := ContextWithPeer(r.Context(), peer)
	ctx = protocol.ContextWithRequestMeta(ctx, requestMeta(r))

	resp := Process(ctx, handler, body, h.logger)
	switch {
	case resp != nil:
		h.writeJSON(w, resp)
	case peer.captured() != nil:
		h.writeJSON(w, peer.captured())
	default:
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(emptyBody)
	}
}

// acceptsBody reports whether the request body should be decoded as a
// JSON-RPC message. An absent or blank Content-Type counts as JSON.
func acceptsBody(r *http.Request) bool {
	if strings.TrimSpace(r.Header.Get("Content-Type")) == "" {
		return true
	}
	ctype, err := contenttype.GetMediaType(r)
	if err != nil {
		return false
	}
	return strings.HasSuffix(ctype.Subtype, "+json") || ctype.MatchesAny(bodyMediaTypes...)
}

func (h *HTTP) writeJSON(w http.ResponseWriter, v any) {
	h.writeJSONStatus(w, http.StatusOK, v)
}

func (h *HTTP) writeJSONStatus(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("failed to encode response", middleware.F("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func requestMeta(r *http.Request) protocol.RequestMeta {
	meta := protocol.RequestMeta{
		protocol.MetaTransport:  "http",
		protocol.MetaRemoteAddr: r.RemoteAddr,
	}
	if v := r.Header.Get("Authorization"); v != "" {
		meta[protocol.MetaAuthorization] = v
	}
	if v := r.Header.Get("X-Request-ID"); v != "" {
		meta[protocol.MetaRequestID] = v
	}
	return meta
}
