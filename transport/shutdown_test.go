package transport_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/minimal-mcp/transport"
)

func TestShutdownManager(t *testing.T) {
	t.Run("tracks in-flight requests", func(t *testing.T) {
		sm := transport.NewShutdownManager(transport.ShutdownConfig{})

		if !sm.TrackRequest() {
			t.Fatal("expected TrackRequest to succeed")
		}
		if sm.InFlightRequests() != 1 {
			t.Errorf("expected 1 in-flight request, got %d", sm.InFlightRequests())
		}

		sm.CompleteRequest()
		if sm.InFlightRequests() != 0 {
			t.Errorf("expected 0 in-flight requests, got %d", sm.InFlightRequests())
		}
	})

	t.Run("rejects requests once drained", func(t *testing.T) {
		sm := transport.NewShutdownManager(transport.ShutdownConfig{Timeout: 100 * time.Millisecond})

		if err := sm.Shutdown(context.Background()); err != nil {
			t.Fatalf("Shutdown: %v", err)
		}
		if !sm.IsDraining() {
			t.Error("expected IsDraining")
		}
		if sm.TrackRequest() {
			t.Error("expected TrackRequest to fail while draining")
		}

		select {
		case <-sm.Done():
		default:
			t.Error("expected Done to be closed")
		}
	})

	t.Run("waits for in-flight requests", func(t *testing.T) {
		sm := transport.NewShutdownManager(transport.ShutdownConfig{Timeout: time.Second})
		sm.TrackRequest()

		go func() {
			time.Sleep(50 * time.Millisecond)
			sm.CompleteRequest()
		}()

		start := time.Now()
		if err := sm.Shutdown(context.Background()); err != nil {
			t.Fatalf("Shutdown: %v", err)
		}
		if time.Since(start) < 40*time.Millisecond {
			t.Error("Shutdown returned before the request completed")
		}
	})

	t.Run("times out if requests don't complete", func(t *testing.T) {
		sm := transport.NewShutdownManager(transport.ShutdownConfig{Timeout: 50 * time.Millisecond})
		sm.TrackRequest()

		err := sm.Shutdown(context.Background())
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected DeadlineExceeded, got %v", err)
		}
	})

	t.Run("accepts requests during drain delay", func(t *testing.T) {
		sm := transport.NewShutdownManager(transport.ShutdownConfig{
			Timeout:    time.Second,
			DrainDelay: 100 * time.Millisecond,
		})

		go func() { _ = sm.Shutdown(context.Background()) }()
		time.Sleep(20 * time.Millisecond)

		if !sm.TrackRequest() {
			t.Fatal("expected TrackRequest to succeed during drain delay")
		}
		sm.CompleteRequest()
	})

	t.Run("context canceled during drain delay", func(t *testing.T) {
		sm := transport.NewShutdownManager(transport.ShutdownConfig{DrainDelay: time.Second})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := sm.Shutdown(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected Canceled, got %v", err)
		}
	})
}
