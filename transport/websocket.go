package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/felixgeelhaar/minimal-mcp/middleware"
	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

// WebSocket serves MCP over WebSocket connections, one message per text frame.
// Frames on a connection are handled in order; connections are independent.
type WebSocket struct {
	addr     string
	upgrader websocket.Upgrader
	logger   middleware.Logger
	maxBytes int64

	readTimeout  time.Duration
	writeTimeout time.Duration

	mu         sync.RWMutex
	listenAddr string
	server     *http.Server
	clients    map[string]*wsClient
}

type wsClient struct {
	id           string
	conn         *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

// WebSocketOption configures a WebSocket transport.
type WebSocketOption func(*WebSocket)

// WithWebSocketReadTimeout sets the idle read timeout per connection.
func WithWebSocketReadTimeout(d time.Duration) WebSocketOption {
	return func(ws *WebSocket) {
		ws.readTimeout = d
	}
}

// WithWebSocketWriteTimeout sets the write timeout for WebSocket messages.
func WithWebSocketWriteTimeout(d time.Duration) WebSocketOption {
	return func(ws *WebSocket) {
		ws.writeTimeout = d
	}
}

// WithWebSocketCheckOrigin sets the origin check function for WebSocket upgrades.
func WithWebSocketCheckOrigin(fn func(r *http.Request) bool) WebSocketOption {
	return func(ws *WebSocket) {
		ws.upgrader.CheckOrigin = fn
	}
}

// WithWebSocketLogger sets the logger.
func WithWebSocketLogger(l middleware.Logger) WebSocketOption {
	return func(ws *WebSocket) {
		ws.logger = l
	}
}

// WithWebSocketMaxMessageBytes bounds the size of a single frame.
func WithWebSocketMaxMessageBytes(n int64) WebSocketOption {
	return func(ws *WebSocket) {
		if n > 0 {
			ws.maxBytes = n
		}
	}
}

// NewWebSocket creates a new WebSocket transport.
func NewWebSocket(addr string, opts ...WebSocketOption) *WebSocket {
	ws := &WebSocket{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:       middleware.NopLogger{},
		maxBytes:     DefaultMaxMessageBytes,
		readTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
		clients:      make(map[string]*wsClient),
	}

	for _, opt := range opts {
		opt(ws)
	}

	return ws
}

// Addr returns the transport address.
func (ws *WebSocket) Addr() string {
	return ws.addr
}

// ListenAddr returns the actual address the server is listening on.
func (ws *WebSocket) ListenAddr() string {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.listenAddr
}

// Serve starts the WebSocket server.
func (ws *WebSocket) Serve(ctx context.Context, handler Handler) error {
	listener, err := net.Listen("tcp", ws.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	ws.mu.Lock()
	ws.listenAddr = listener.Addr().String()
	ws.server = &http.Server{
		Handler:     ws.Handler(ctx, handler),
		ReadTimeout: ws.readTimeout,
	}
	srv := ws.server
	ws.mu.Unlock()

	ws.logger.Info("websocket transport listening", middleware.F("addr", ws.ListenAddr()))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ws.closeAllClients()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Handler returns the http.Handler that upgrades connections. Connections
// end when ctx is canceled.
func (ws *WebSocket) Handler(ctx context.Context, handler Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.handleConnection(ctx, w, r, handler)
	})
}

func (ws *WebSocket) handleConnection(ctx context.Context, w http.ResponseWriter, r *http.Request, handler Handler) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Warn("websocket upgrade failed", middleware.F("error", err.Error()))
		return
	}
	conn.SetReadLimit(ws.maxBytes)

	client := &wsClient{id: uuid.NewString(), conn: conn, writeTimeout: ws.writeTimeout}

	ws.mu.Lock()
	ws.clients[client.id] = client
	ws.mu.Unlock()

	defer func() {
		ws.mu.Lock()
		delete(ws.clients, client.id)
		ws.mu.Unlock()
		_ = conn.Close()
		ws.logger.Debug("websocket closed", middleware.F("conn", client.id))
	}()

	ws.logger.Debug("websocket opened", middleware.F("conn", client.id), middleware.F("remote", r.RemoteAddr))

	meta := requestMeta(r)
	meta[protocol.MetaTransport] = "websocket"
	connCtx := protocol.ContextWithRequestMeta(ctx, meta)
	connCtx = ContextWithPeer(connCtx, client)

	for {
		if ctx.Err() != nil {
			return
		}

		if ws.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(ws.readTimeout))
		}

		msgType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ws.logger.Warn("websocket read failed", middleware.F("conn", client.id), middleware.F("error", err.Error()))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		resp := Process(connCtx, handler, message, ws.logger)
		if resp == nil {
			continue
		}
		if err := client.writeJSON(resp); err != nil {
			ws.logger.Warn("websocket write failed", middleware.F("conn", client.id), middleware.F("error", err.Error()))
			return
		}
	}
}

func (ws *WebSocket) closeAllClients() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	for _, client := range ws.clients {
		client.close()
	}
}

// SendRequest writes a server-initiated request as its own frame.
func (c *wsClient) SendRequest(req *protocol.Request) error {
	return c.writeJSON(req)
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.conn.WriteJSON(v)
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.conn.Close()
}
