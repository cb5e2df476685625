// Package daemon implements the polling change monitor.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cluely_mon/internal/domain"
)

// ErrInvalidInterval is returned by Start for a non-positive interval.
var ErrInvalidInterval = errors.New("monitor interval must be positive")

// Callbacks are invoked from the polling goroutine. Each is optional.
// A callback must not call Stop on the same Monitor.
type Callbacks struct {
	OnDetected func(domain.DetectionResult) // not detected -> detected
	OnRemoved  func()                       // detected -> not detected
	OnChange   func(domain.DetectionResult) // every tick
}

// Monitor re-runs detection on a fixed interval and reports transitions.
// The previous state before the first tick is "not detected".
type Monitor struct {
	detector domain.Detector
	store    domain.ResultStore // optional
	logger   *zap.Logger
	now      func() time.Time

	// lifecycle guards cancel/done
	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}

	mu   sync.RWMutex
	last *domain.DetectionResult
}

// NewMonitor creates a stopped monitor. store may be nil.
func NewMonitor(detector domain.Detector, store domain.ResultStore, logger *zap.Logger) *Monitor {
	return &Monitor{
		detector: detector,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// Start begins polling. The first tick runs immediately. Starting a running
// monitor stops the current polling goroutine first and resets state.
func (m *Monitor) Start(interval time.Duration, cb Callbacks) error {
	if interval <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidInterval, interval)
	}

	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if m.cancel != nil {
		m.logger.Debug("monitor already running, restarting")
		m.stopLocked()
	}

	m.setLast(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go m.run(ctx, interval, cb, done)

	m.logger.Info("monitor started", zap.Duration("interval", interval))
	return nil
}

// Stop cancels polling and blocks until the polling goroutine has exited.
// No callback fires after Stop returns. Stop on a stopped monitor is a no-op.
func (m *Monitor) Stop() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if m.cancel == nil {
		return
	}
	m.stopLocked()
	m.setLast(nil)

	m.logger.Info("monitor stopped")
}

func (m *Monitor) stopLocked() {
	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil
}

// IsRunning reports whether a polling goroutine is active.
func (m *Monitor) IsRunning() bool {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	return m.cancel != nil
}

// LastDetection returns a copy of the most recent tick's result, or nil
// before the first tick and after Stop.
func (m *Monitor) LastDetection() *domain.DetectionResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return nil
	}
	r := *m.last
	return &r
}

// Run registers the monitor in the store, polls until ctx is canceled,
// then stops and clears the registration.
func (m *Monitor) Run(ctx context.Context, reg domain.MonitorRegistration, cb Callbacks) error {
	if err := m.Start(reg.Interval, cb); err != nil {
		return err
	}

	if m.store != nil {
		if err := m.store.RegisterMonitor(reg); err != nil {
			m.logger.Warn("failed to register monitor", zap.Error(err))
		}
	}

	<-ctx.Done()
	m.Stop()

	if m.store != nil {
		if err := m.store.ClearMonitor(); err != nil {
			m.logger.Warn("failed to clear monitor registration", zap.Error(err))
		}
	}

	return ctx.Err()
}

func (m *Monitor) run(ctx context.Context, interval time.Duration, cb Callbacks, done chan struct{}) {
	defer close(done)

	m.tick(ctx, cb)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx, cb)
		}
	}
}

// tick runs one detection pass and fires callbacks for the transition.
func (m *Monitor) tick(ctx context.Context, cb Callbacks) {
	result := m.detector.Detect(ctx)
	if ctx.Err() != nil {
		return
	}

	prev := m.swapLast(result)
	wasDetected := prev != nil && prev.IsDetected

	m.persist(result)

	switch {
	case !wasDetected && result.IsDetected:
		m.logger.Info("monitored software detected",
			zap.Uint32("window_count", result.WindowCount),
			zap.String("severity", domain.SeverityOf(result).String()))
		if cb.OnDetected != nil && ctx.Err() == nil {
			cb.OnDetected(result)
		}
	case wasDetected && !result.IsDetected:
		m.logger.Info("monitored software no longer detected")
		if cb.OnRemoved != nil && ctx.Err() == nil {
			cb.OnRemoved()
		}
	}

	if cb.OnChange != nil && ctx.Err() == nil {
		cb.OnChange(result)
	}
}

func (m *Monitor) setLast(r *domain.DetectionResult) {
	m.mu.Lock()
	m.last = r
	m.mu.Unlock()
}

func (m *Monitor) swapLast(r domain.DetectionResult) *domain.DetectionResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.last
	m.last = &r
	return prev
}

func (m *Monitor) persist(r domain.DetectionResult) {
	if m.store == nil {
		return
	}
	stored := domain.StoredResult{
		Result:     r,
		Severity:   domain.SeverityOf(r),
		ObservedAt: m.now(),
	}
	if err := m.store.SaveResult(stored); err != nil {
		m.logger.Warn("failed to save detection result", zap.Error(err))
	}
}
