package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// scheduler drives periodic refreshes from a single goroutine. Interval
// changes are applied with ticker.Reset inside that goroutine, so two
// timers never run at once.
type scheduler struct {
	mu       sync.Mutex
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
	reset    chan time.Duration
}

// StartAutoRefresh refreshes immediately and then once per interval until
// StopAutoRefresh or ctx is cancelled. Starting twice is a no-op.
func (m *Monitor) StartAutoRefresh(ctx context.Context) {
	s := &m.sched
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.reset = make(chan time.Duration, 1)
	go m.loop(ctx, s.interval, s.reset, s.done)
}

// StopAutoRefresh stops the loop and waits for it to exit.
func (m *Monitor) StopAutoRefresh() {
	s := &m.sched
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	s.reset = nil
}

func (m *Monitor) AutoRefreshing() bool {
	s := &m.sched
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (m *Monitor) Interval() time.Duration {
	s := &m.sched
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// SetInterval changes the refresh period. A running loop picks it up at its
// next select; a pending change that has not been applied yet is replaced.
func (m *Monitor) SetInterval(d time.Duration) error {
	if d <= 0 {
		return errors.New("refresh interval must be positive")
	}
	s := &m.sched
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
	if s.reset == nil {
		return nil
	}
	select {
	case <-s.reset:
	default:
	}
	s.reset <- d
	return nil
}

func (m *Monitor) loop(ctx context.Context, interval time.Duration, reset <-chan time.Duration, done chan<- struct{}) {
	defer close(done)

	m.tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-reset:
			ticker.Reset(d)
			slog.Info("refresh interval changed", "interval", d)
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	if err := m.RefreshAll(ctx); err != nil && ctx.Err() == nil {
		slog.Warn("scheduled refresh failed", "error", err)
	}
}
