package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/felixgeelhaar/minimal-mcp/middleware"
	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

// DefaultMaxMessageBytes bounds a single inbound message on every transport.
const DefaultMaxMessageBytes = 1 << 20

// Stdio implements MCP transport over stdin/stdout, one JSON message per line.
// Messages are handled strictly in order.
type Stdio struct {
	in       io.Reader
	out      *bufio.Writer
	logger   middleware.Logger
	maxBytes int

	mu sync.Mutex
}

// StdioOption configures a Stdio transport.
type StdioOption func(*Stdio)

// WithStdin sets a custom stdin reader.
func WithStdin(r io.Reader) StdioOption {
	return func(s *Stdio) {
		s.in = r
	}
}

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) StdioOption {
	return func(s *Stdio) {
		s.out = bufio.NewWriter(w)
	}
}

// WithStdioLogger sets the logger. Logs must not go to stdout.
func WithStdioLogger(l middleware.Logger) StdioOption {
	return func(s *Stdio) {
		s.logger = l
	}
}

// WithStdioMaxMessageBytes bounds the length of a single line.
func WithStdioMaxMessageBytes(n int) StdioOption {
	return func(s *Stdio) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// NewStdio creates a new stdio transport.
func NewStdio(opts ...StdioOption) *Stdio {
	s := &Stdio{
		in:       os.Stdin,
		out:      bufio.NewWriter(os.Stdout),
		logger:   middleware.NopLogger{},
		maxBytes: DefaultMaxMessageBytes,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Addr returns the transport address.
func (s *Stdio) Addr() string {
	return "stdio"
}

type stdioLine struct {
	data    []byte
	tooLong bool
}

// Serve reads lines until EOF or until ctx is canceled.
func (s *Stdio) Serve(ctx context.Context, handler Handler) error {
	lines := make(chan stdioLine)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		r := bufio.NewReader(s.in)
		for {
			data, tooLong, err := readLine(r, s.maxBytes)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr <- err
				}
				return
			}
			select {
			case lines <- stdioLine{data: data, tooLong: tooLong}:
			case <-ctx.Done():
				return
			}
		}
	}()

	ctx = ContextWithPeer(ctx, s)
	ctx = protocol.SetRequestMeta(ctx, protocol.MetaTransport, "stdio")

	s.logger.Info("stdio transport started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return fmt.Errorf("read stdin: %w", err)
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return fmt.Errorf("read stdin: %w", err)
				default:
				}
				s.logger.Info("stdin closed")
				return nil
			}
			if err := s.handleLine(ctx, handler, line); err != nil {
				return err
			}
		}
	}
}

func (s *Stdio) handleLine(ctx context.Context, handler Handler, line stdioLine) error {
	if line.tooLong {
		err := protocol.NewInvalidRequest(fmt.Sprintf("Invalid Request: message exceeds %d bytes", s.maxBytes))
		return s.write(protocol.NewErrorResponse(nil, err))
	}

	data := bytes.TrimSpace(line.data)
	if len(data) == 0 {
		return nil
	}

	resp := Process(ctx, handler, data, s.logger)
	if resp == nil {
		return nil
	}
	return s.write(resp)
}

// SendRequest writes a server-initiated request as its own line.
func (s *Stdio) SendRequest(req *protocol.Request) error {
	return s.write(req)
}

func (s *Stdio) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.out.Write(data); err != nil {
		return fmt.Errorf("write stdout: %w", err)
	}
	if err := s.out.WriteByte('\n'); err != nil {
		return fmt.Errorf("write stdout: %w", err)
	}
	if err := s.out.Flush(); err != nil {
		return fmt.Errorf("flush stdout: %w", err)
	}
	return nil
}

// readLine reads up to and including the next newline. Lines longer than
// limit are consumed and reported with tooLong set. A final line without a
// trailing newline is returned before io.EOF.
func readLine(r *bufio.Reader, limit int) ([]byte, bool, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(bytes.TrimRight(chunk, "\r\n")) > limit {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(line) > 0 || tooLong {
				return line, tooLong, nil
			}
			return nil, false, io.EOF
		case err != nil:
			return nil, false, err
		}
		return line, tooLong, nil
	}
}
