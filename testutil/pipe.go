package testutil

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/minimal-mcp/protocol"
	"github.com/felixgeelhaar/minimal-mcp/transport"
)

// DefaultReadTimeout bounds how long StdioPipe waits for an output line.
const DefaultReadTimeout = 2 * time.Second

// StdioPipe runs the stdio transport over in-process pipes so tests can
// exchange lines with it like a peer process would.
type StdioPipe struct {
	t      testing.TB
	in     *io.PipeWriter
	lines  chan []byte
	done   chan error
	cancel context.CancelFunc
}

// NewStdioPipe starts the stdio transport serving handler. The transport is
// stopped when the test ends.
func NewStdioPipe(t testing.TB, handler transport.Handler, opts ...transport.StdioOption) *StdioPipe {
	t.Helper()

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	opts = append([]transport.StdioOption{transport.WithStdin(inR), transport.WithStdout(outW)}, opts...)
	tr := transport.NewStdio(opts...)

	ctx, cancel := context.WithCancel(context.Background())
	p := &StdioPipe{
		t:      t,
		in:     inW,
		lines:  make(chan []byte, 64),
		done:   make(chan error, 1),
		cancel: cancel,
	}

	go func() {
		err := tr.Serve(ctx, handler)
		_ = outW.Close()
		p.done <- err
	}()

	go func() {
		defer close(p.lines)
		r := bufio.NewReader(outR)
		for {
			line, err := r.ReadBytes('\n')
			if len(line) > 0 {
				p.lines <- line
			}
			if err != nil {
				return
			}
		}
	}()

	t.Cleanup(func() {
		cancel()
		_ = inW.Close()
		_ = outR.Close()
	})
	return p
}

// WriteLine writes one raw line to the transport's stdin.
func (p *StdioPipe) WriteLine(line string) {
	p.t.Helper()
	if _, err := io.WriteString(p.in, line+"\n"); err != nil {
		p.t.Fatalf("write stdin: %v", err)
	}
}

// Write encodes v as one line on stdin.
func (p *StdioPipe) Write(v any) {
	p.t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		p.t.Fatalf("marshal: %v", err)
	}
	p.WriteLine(string(data))
}

// ReadLine returns the next line written to stdout, without the newline.
func (p *StdioPipe) ReadLine() (string, error) {
	select {
	case line, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimRight(string(line), "\r\n"), nil
	case <-time.After(DefaultReadTimeout):
		return "", errors.New("timed out waiting for output")
	}
}

// ReadResponse reads the next line as a response envelope.
func (p *StdioPipe) ReadResponse() (*protocol.Response, error) {
	line, err := p.ReadLine()
	if err != nil {
		return nil, err
	}
	var resp protocol.Response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

// ReadRequest reads the next line as a server-initiated request.
func (p *StdioPipe) ReadRequest() (*protocol.Request, error) {
	line, err := p.ReadLine()
	if err != nil {
		return nil, err
	}
	var req protocol.Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &req, nil
}

// ExpectSilence fails the test if the transport writes anything within d.
func (p *StdioPipe) ExpectSilence(d time.Duration) {
	p.t.Helper()
	select {
	case line, ok := <-p.lines:
		if ok {
			p.t.Fatalf("unexpected output: %s", line)
		}
	case <-time.After(d):
	}
}

// CloseInput closes stdin and waits for Serve to return.
func (p *StdioPipe) CloseInput() error {
	_ = p.in.Close()
	select {
	case err := <-p.done:
		return err
	case <-time.After(DefaultReadTimeout):
		p.cancel()
		return errors.New("transport did not stop after stdin closed")
	}
}
