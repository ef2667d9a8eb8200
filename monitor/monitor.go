package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"ocpp-monitor/analytics"
	"ocpp-monitor/models"
	"ocpp-monitor/overstay"
	"ocpp-monitor/source"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

var ErrNoOverstaySource = errors.New("no overstay source configured")

// Publisher receives every committed snapshot.
type Publisher interface {
	Publish(ctx context.Context, snap *models.Snapshot) error
}

type Options struct {
	LogLimit      int
	OverstayLimit int
	Interval      time.Duration
	Analysis      analytics.Options
}

func DefaultOptions() Options {
	return Options{
		LogLimit:      100,
		OverstayLimit: 1000,
		Interval:      5 * time.Second,
		Analysis:      analytics.DefaultOptions(),
	}
}

// Status is the connectivity view of the log source.
type Status struct {
	Connected   bool      `json:"connected"`
	LastError   string    `json:"lastError,omitempty"`
	LastAttempt time.Time `json:"lastAttempt"`
	LastSuccess time.Time `json:"lastSuccess"`
}

// Monitor owns the current snapshot. Every refresh or push takes a
// generation number when it starts; a result is committed only if no newer
// generation has been committed, so a slow response can never overwrite a
// fresher one.
type Monitor struct {
	logs       source.LogSource
	overstay   source.OverstaySource
	publishers []Publisher
	opts       Options

	current atomic.Pointer[models.Snapshot]
	issued  atomic.Uint64

	mu        sync.Mutex
	committed uint64
	statusGen uint64
	status    Status

	publishMu     sync.Mutex
	lastPublished uint64

	overstayMu        sync.RWMutex
	overstayIssued    atomic.Uint64
	overstayCommitted uint64
	overstayRecords   []models.OverstayRecord

	sched scheduler
}

// New builds a monitor. overstay may be nil when no overstay feed exists.
func New(logs source.LogSource, overstaySrc source.OverstaySource, opts Options, publishers ...Publisher) *Monitor {
	if opts.LogLimit <= 0 {
		opts.LogLimit = DefaultOptions().LogLimit
	}
	if opts.OverstayLimit <= 0 {
		opts.OverstayLimit = DefaultOptions().OverstayLimit
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultOptions().Interval
	}
	m := &Monitor{
		logs:       logs,
		overstay:   overstaySrc,
		publishers: publishers,
		opts:       opts,
	}
	m.current.Store(models.EmptySnapshot())
	m.sched.interval = opts.Interval
	return m
}

// Snapshot returns the last committed snapshot. It is never nil.
func (m *Monitor) Snapshot() *models.Snapshot {
	return m.current.Load()
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Refresh fetches the latest batch and analyzes it. On a source failure the
// previous snapshot stays in place. An empty batch is not analyzed.
func (m *Monitor) Refresh(ctx context.Context) error {
	gen := m.issued.Add(1)

	records, err := m.logs.FetchLogs(ctx, m.opts.LogLimit)
	m.setStatus(gen, err)
	if err != nil {
		analysisRunsTotal.WithLabelValues("error").Inc()
		slog.Warn("log refresh failed", "generation", gen, "error", err)
		return fmt.Errorf("refresh: %w", err)
	}
	if len(records) == 0 {
		analysisRunsTotal.WithLabelValues("empty").Inc()
		return nil
	}

	m.commit(ctx, gen, records)
	return nil
}

// Ingest analyzes a pushed batch through the same commit path as Refresh.
func (m *Monitor) Ingest(ctx context.Context, records []models.LogRecord) *models.Snapshot {
	gen := m.issued.Add(1)
	return m.commit(ctx, gen, records)
}

// commit returns the snapshot now current, which is not the one analyzed
// here when a newer generation already won.
func (m *Monitor) commit(ctx context.Context, gen uint64, records []models.LogRecord) *models.Snapshot {
	start := time.Now()
	snap := analytics.Analyze(records, m.opts.Analysis)
	snap.ID = uuid.NewString()
	snap.Generation = gen
	elapsed := time.Since(start)

	m.mu.Lock()
	if gen <= m.committed {
		m.mu.Unlock()
		analysisRunsTotal.WithLabelValues("stale").Inc()
		slog.Debug("discarding stale analysis", "generation", gen)
		return m.Snapshot()
	}
	m.committed = gen
	m.current.Store(snap)
	m.mu.Unlock()

	analysisRunsTotal.WithLabelValues("ok").Inc()
	analysisDurationSeconds.Observe(elapsed.Seconds())
	m.record(snap)

	slog.Info("analysis committed",
		"generation", gen,
		"records", len(records),
		"anomalies", snap.Metrics.AnomalyCount,
		"malformed", snap.MalformedFragments,
		"duration", elapsed,
	)

	m.publish(ctx, snap)
	return snap
}

func (m *Monitor) record(snap *models.Snapshot) {
	for _, a := range snap.Anomalies {
		charger := "unknown"
		if a.Charger != nil {
			charger = *a.Charger
		}
		anomaliesDetectedTotal.WithLabelValues(charger).Inc()
	}
	malformedFragmentsTotal.Add(float64(snap.MalformedFragments))
	healthScore.Set(float64(snap.Metrics.HealthScorePct))
	activeSessions.Set(float64(snap.Metrics.ActiveSessions))
	onlineChargers.Set(float64(snap.Metrics.OnlineChargers))
}

func (m *Monitor) publish(ctx context.Context, snap *models.Snapshot) {
	if len(m.publishers) == 0 {
		return
	}
	m.publishMu.Lock()
	defer m.publishMu.Unlock()
	if snap.Generation <= m.lastPublished {
		return
	}
	m.lastPublished = snap.Generation

	var result *multierror.Error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, snap); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		publishErrorsTotal.Inc()
		slog.Warn("snapshot publish failed", "generation", snap.Generation, "error", err)
	}
}

// setStatus applies the outcome of generation gen unless a newer attempt has
// already reported.
func (m *Monitor) setStatus(gen uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen < m.statusGen {
		return
	}
	m.statusGen = gen
	now := time.Now()
	m.status.LastAttempt = now
	if err != nil {
		m.status.Connected = false
		m.status.LastError = err.Error()
		return
	}
	m.status.Connected = true
	m.status.LastError = ""
	m.status.LastSuccess = now
}

// RefreshOverstay replaces the overstay record set with a fresh fetch.
func (m *Monitor) RefreshOverstay(ctx context.Context) error {
	if m.overstay == nil {
		return ErrNoOverstaySource
	}
	gen := m.overstayIssued.Add(1)

	records, err := m.overstay.FetchOverstay(ctx, m.opts.OverstayLimit)
	if err != nil {
		slog.Warn("overstay refresh failed", "generation", gen, "error", err)
		return fmt.Errorf("refresh overstay: %w", err)
	}

	m.overstayMu.Lock()
	defer m.overstayMu.Unlock()
	if gen <= m.overstayCommitted {
		return nil
	}
	m.overstayCommitted = gen
	m.overstayRecords = records
	return nil
}

// RefreshAll refreshes logs and, when configured, overstay records
// concurrently. The feeds are independent: a failure in one does not cancel
// the other, and both errors are reported.
func (m *Monitor) RefreshAll(ctx context.Context) error {
	var logErr, overstayErr error
	var g errgroup.Group
	g.Go(func() error {
		logErr = m.Refresh(ctx)
		return nil
	})
	if m.overstay != nil {
		g.Go(func() error {
			overstayErr = m.RefreshOverstay(ctx)
			return nil
		})
	}
	g.Wait()

	var result *multierror.Error
	if logErr != nil {
		result = multierror.Append(result, logErr)
	}
	if overstayErr != nil {
		result = multierror.Append(result, overstayErr)
	}
	return result.ErrorOrNil()
}

func (m *Monitor) OverstayRecords() []models.OverstayRecord {
	m.overstayMu.RLock()
	defer m.overstayMu.RUnlock()
	out := make([]models.OverstayRecord, len(m.overstayRecords))
	copy(out, m.overstayRecords)
	return out
}

func (m *Monitor) QueryOverstay(c overstay.Criteria, page, pageSize int) overstay.Result {
	m.overstayMu.RLock()
	defer m.overstayMu.RUnlock()
	return overstay.Query(m.overstayRecords, c, page, pageSize)
}

// Close stops auto refresh and closes every publisher that holds resources.
func (m *Monitor) Close() error {
	m.StopAutoRefresh()

	var result *multierror.Error
	for _, p := range m.publishers {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result.ErrorOrNil()
}
