package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func serveStdio(t *testing.T, input string, opts ...StdioOption) []string {
	t.Helper()

	out := &bytes.Buffer{}
	opts = append([]StdioOption{WithStdin(strings.NewReader(input)), WithStdout(out)}, opts...)
	s := NewStdio(opts...)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Serve(ctx, &fakeHandler{}); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	var lines []string
	for _, line := range strings.Split(out.String(), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestNewStdio(t *testing.T) {
	s := NewStdio()
	if s.Addr() != "stdio" {
		t.Errorf("Addr() = %q, want %q", s.Addr(), "stdio")
	}
	if s.maxBytes != DefaultMaxMessageBytes {
		t.Errorf("maxBytes = %d", s.maxBytes)
	}
}

func TestStdio_Serve(t *testing.T) {
	t.Run("one line per response in order", func(t *testing.T) {
		lines := serveStdio(t,
			`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"+
				`{"jsonrpc":"2.0","id":"b","method":"ping"}`+"\n")

		want := []string{
			`{"jsonrpc":"2.0","id":1,"result":{}}`,
			`{"jsonrpc":"2.0","id":"b","result":{}}`,
		}
		if len(lines) != len(want) {
			t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
		}
		for i := range want {
			if lines[i] != want[i] {
				t.Errorf("line %d = %s, want %s", i, lines[i], want[i])
			}
		}
	})

	t.Run("skips blank lines", func(t *testing.T) {
		lines := serveStdio(t, "\n   \n"+`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n\n")
		if len(lines) != 1 {
			t.Fatalf("expected 1 line, got %q", lines)
		}
	})

	t.Run("handles final line without newline", func(t *testing.T) {
		lines := serveStdio(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
		if len(lines) != 1 {
			t.Fatalf("expected 1 line, got %q", lines)
		}
	})

	t.Run("parse error yields exactly one line", func(t *testing.T) {
		lines := serveStdio(t, "this is not json\n")
		if len(lines) != 1 {
			t.Fatalf("expected 1 line, got %q", lines)
		}
		want := `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"Parse error"}}`
		if lines[0] != want {
			t.Errorf("got %s, want %s", lines[0], want)
		}
	})

	t.Run("notification writes the outbound request only", func(t *testing.T) {
		lines := serveStdio(t, `{"jsonrpc":"2.0","method":"notifications/initialized"}`+"\n")
		if len(lines) != 1 {
			t.Fatalf("expected 1 line, got %q", lines)
		}
		want := `{"jsonrpc":"2.0","id":"srv-1","method":"roots/list","params":{}}`
		if lines[0] != want {
			t.Errorf("got %s, want %s", lines[0], want)
		}
	})

	t.Run("oversized line is rejected and the loop continues", func(t *testing.T) {
		long := `{"jsonrpc":"2.0","id":1,"method":"` + strings.Repeat("x", 200) + `"}`
		lines := serveStdio(t, long+"\n"+`{"jsonrpc":"2.0","id":2,"method":"ping"}`+"\n",
			WithStdioMaxMessageBytes(64))
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %q", lines)
		}
		if !strings.Contains(lines[0], `"code":-32600`) {
			t.Errorf("expected invalid request, got %s", lines[0])
		}
		if lines[1] != `{"jsonrpc":"2.0","id":2,"result":{}}` {
			t.Errorf("unexpected second line %s", lines[1])
		}
	})
}

func TestStdio_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	s := NewStdio(WithStdin(pr), WithStdout(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, &fakeHandler{})
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestReadLine(t *testing.T) {
	r := bufio.NewReaderSize(strings.NewReader("short\n"+strings.Repeat("y", 40)+"\nlast"), 16)

	line, tooLong, err := readLine(r, 20)
	if err != nil || tooLong || string(line) != "short\n" {
		t.Fatalf("first line = %q, %v, %v", line, tooLong, err)
	}

	line, tooLong, err = readLine(r, 20)
	if err != nil || !tooLong || line != nil {
		t.Fatalf("second line = %q, %v, %v", line, tooLong, err)
	}

	line, tooLong, err = readLine(r, 20)
	if err != nil || tooLong || string(line) != "last" {
		t.Fatalf("third line = %q, %v, %v", line, tooLong, err)
	}

	if _, _, err = readLine(r, 20); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}
