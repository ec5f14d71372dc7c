package transport

import (
	"context"
	"sync"
	"time"
)

// DefaultShutdownTimeout bounds Shutdown when no timeout is configured.
const DefaultShutdownTimeout = 30 * time.Second

// ShutdownConfig configures how the HTTP adapter drains.
type ShutdownConfig struct {
	// Timeout bounds the wait for exchanges still in flight.
	Timeout time.Duration

	// DrainDelay keeps accepting exchanges for a while after Shutdown is
	// called, so a load balancer can take the instance out of rotation.
	DrainDelay time.Duration
}

// ShutdownManager gates HTTP exchanges. Once draining, new exchanges are
// refused and Shutdown waits until the admitted ones have completed.
type ShutdownManager struct {
	config ShutdownConfig

	mu       sync.Mutex
	draining bool
	active   int64
	idle     chan struct{} // closed when draining with nothing active

	done     chan struct{}
	doneOnce sync.Once
}

// NewShutdownManager creates a shutdown manager.
func NewShutdownManager(config ShutdownConfig) *ShutdownManager {
	if config.Timeout <= 0 {
		config.Timeout = DefaultShutdownTimeout
	}
	return &ShutdownManager{
		config: config,
		idle:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// TrackRequest admits an exchange. It returns false while draining, in
// which case the caller must not call CompleteRequest.
func (sm *ShutdownManager) TrackRequest() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.draining {
		return false
	}
	sm.active++
	return true
}

// CompleteRequest marks an admitted exchange as finished.
func (sm *ShutdownManager) CompleteRequest() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.active--
	sm.signalIdleLocked()
}

// IsDraining reports whether new exchanges are refused.
func (sm *ShutdownManager) IsDraining() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.draining
}

// InFlightRequests returns the number of admitted exchanges not yet completed.
func (sm *ShutdownManager) InFlightRequests() int64 {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.active
}

func (sm *ShutdownManager) signalIdleLocked() {
	if !sm.draining || sm.active > 0 {
		return
	}
	select {
	case <-sm.idle:
	default:
		close(sm.idle)
	}
}

// Shutdown waits out the drain delay, stops admitting exchanges and waits for
// the admitted ones. It fails with context.DeadlineExceeded when some are
// still running after the configured timeout.
func (sm *ShutdownManager) Shutdown(ctx context.Context) error {
	defer sm.doneOnce.Do(func() { close(sm.done) })

	if sm.config.DrainDelay > 0 {
		timer := time.NewTimer(sm.config.DrainDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	sm.mu.Lock()
	sm.draining = true
	sm.signalIdleLocked()
	sm.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, sm.config.Timeout)
	defer cancel()

	select {
	case <-sm.idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Shutdown has returned.
func (sm *ShutdownManager) Done() <-chan struct{} {
	return sm.done
}

// WithShutdownTimeout sets the drain budget of the HTTP adapter.
func WithShutdownTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		if d > 0 {
			h.shutdownTimeout = d
		}
	}
}

// WithShutdownDrainDelay sets how long the HTTP adapter keeps admitting
// exchanges after shutdown begins.
func WithShutdownDrainDelay(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.drainDelay = d
	}
}
