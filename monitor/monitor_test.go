package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ocpp-monitor/models"
	"ocpp-monitor/overstay"
)

type fakeLogs struct {
	mu      sync.Mutex
	records []models.LogRecord
	err     error
	calls   atomic.Int32
}

func (f *fakeLogs) FetchLogs(_ context.Context, limit int) ([]models.LogRecord, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && len(f.records) > limit {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeLogs) set(records []models.LogRecord, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = records
	f.err = err
}

// blockingLogs returns its batch only after release is closed.
type blockingLogs struct {
	started chan struct{}
	release chan struct{}
	records []models.LogRecord
}

func (b *blockingLogs) FetchLogs(ctx context.Context, _ int) ([]models.LogRecord, error) {
	close(b.started)
	select {
	case <-b.release:
		return b.records, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type fakeOverstay struct {
	records []models.OverstayRecord
	err     error
}

func (f *fakeOverstay) FetchOverstay(context.Context, int) ([]models.OverstayRecord, error) {
	return f.records, f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	gens   []uint64
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, snap *models.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gens = append(p.gens, snap.Generation)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func voltageBatch(v string) []models.LogRecord {
	return []models.LogRecord{{
		Text:      `MeterValues from CP1: {"transactionId":5,"meterValue":[{"sampledValue":[{"value":"` + v + `","measurand":"Voltage"}]}]}`,
		CreatedAt: time.Now(),
	}}
}

func TestRefreshCommitsSnapshot(t *testing.T) {
	logs := &fakeLogs{records: voltageBatch("250")}
	pub := &recordingPublisher{}
	m := New(logs, nil, DefaultOptions(), pub)

	if got := m.Snapshot(); got.Metrics.HealthScorePct != 100 || got.Generation != 0 {
		t.Fatalf("expected empty initial snapshot, got %+v", got.Metrics)
	}

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := m.Snapshot()
	if snap.Generation != 1 || snap.ID == "" || len(snap.Anomalies) != 1 {
		t.Fatalf("unexpected snapshot: gen %d id %q anomalies %d", snap.Generation, snap.ID, len(snap.Anomalies))
	}
	if !m.Status().Connected {
		t.Error("expected connected status")
	}
	if len(pub.gens) != 1 || pub.gens[0] != 1 {
		t.Errorf("expected one publish of generation 1, got %v", pub.gens)
	}
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	logs := &fakeLogs{records: voltageBatch("250")}
	m := New(logs, nil, DefaultOptions())
	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := m.Snapshot()

	logs.set(nil, errors.New("connection refused"))
	if err := m.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	if m.Snapshot() != before {
		t.Error("failed refresh replaced the snapshot")
	}
	st := m.Status()
	if st.Connected || st.LastError == "" || st.LastSuccess.IsZero() {
		t.Errorf("unexpected status after failure: %+v", st)
	}

	logs.set(voltageBatch("230"), nil)
	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Status().Connected || m.Status().LastError != "" {
		t.Errorf("status did not recover: %+v", m.Status())
	}
}

func TestRefreshEmptyBatchKeepsSnapshot(t *testing.T) {
	logs := &fakeLogs{records: voltageBatch("250")}
	m := New(logs, nil, DefaultOptions())
	m.Refresh(context.Background())
	before := m.Snapshot()

	logs.set([]models.LogRecord{}, nil)
	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Snapshot() != before {
		t.Error("empty batch replaced the snapshot")
	}
	if !m.Status().Connected {
		t.Error("empty batch should still count as connected")
	}
}

func TestStaleRefreshIsDiscarded(t *testing.T) {
	slow := &blockingLogs{
		started: make(chan struct{}),
		release: make(chan struct{}),
		records: voltageBatch("250"),
	}
	pub := &recordingPublisher{}
	m := New(slow, nil, DefaultOptions(), pub)

	errc := make(chan error, 1)
	go func() { errc <- m.Refresh(context.Background()) }()
	<-slow.started

	// A newer batch arrives while the first fetch is still in flight.
	fresh := m.Ingest(context.Background(), voltageBatch("230"))
	if fresh.Generation != 2 {
		t.Fatalf("expected generation 2, got %d", fresh.Generation)
	}

	close(slow.release)
	if err := <-errc; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := m.Snapshot()
	if snap.Generation != 2 || len(snap.Anomalies) != 0 {
		t.Errorf("stale result overwrote newer snapshot: gen %d anomalies %d", snap.Generation, len(snap.Anomalies))
	}
	if len(pub.gens) != 1 || pub.gens[0] != 2 {
		t.Errorf("expected only generation 2 published, got %v", pub.gens)
	}
}

func TestIngestReturnsCommittedSnapshot(t *testing.T) {
	m := New(&fakeLogs{}, nil, DefaultOptions())
	snap := m.Ingest(context.Background(), voltageBatch("205"))
	if snap != m.Snapshot() || snap.Metrics.AnomalyCount != 1 {
		t.Errorf("unexpected ingest result: %+v", snap.Metrics)
	}
	if m.Status().Connected {
		t.Error("a pushed batch should not mark the source connected")
	}
}

func TestPublishErrorDoesNotFailRefresh(t *testing.T) {
	bad := &recordingPublisher{err: errors.New("redis down")}
	good := &recordingPublisher{}
	m := New(&fakeLogs{records: voltageBatch("230")}, nil, DefaultOptions(), bad, good)

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(good.gens) != 1 {
		t.Errorf("second publisher skipped after first failed: %v", good.gens)
	}
}

func TestRefreshOverstay(t *testing.T) {
	m := New(&fakeLogs{}, nil, DefaultOptions())
	if err := m.RefreshOverstay(context.Background()); !errors.Is(err, ErrNoOverstaySource) {
		t.Fatalf("expected ErrNoOverstaySource, got %v", err)
	}

	src := &fakeOverstay{records: []models.OverstayRecord{
		{TransactionRef: "1", StationName: "A", OverstayMinutes: 10},
		{TransactionRef: "2", StationName: "B", OverstayMinutes: 45},
	}}
	m = New(&fakeLogs{}, src, DefaultOptions())
	if err := m.RefreshOverstay(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := m.OverstayRecords()
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	got[0].StationName = "mutated"
	if m.OverstayRecords()[0].StationName != "A" {
		t.Error("OverstayRecords exposed internal state")
	}

	res := m.QueryOverstay(overstay.Criteria{Mode: overstay.ModeOverstay}, 1, 10)
	if len(res.Records) != 1 || res.Records[0].TransactionRef != "2" {
		t.Errorf("unexpected query result: %+v", res)
	}

	src.err = errors.New("timeout")
	if err := m.RefreshOverstay(context.Background()); err == nil {
		t.Fatal("expected overstay error")
	}
	if len(m.OverstayRecords()) != 2 {
		t.Error("failed overstay refresh dropped records")
	}
}

func TestRefreshAll(t *testing.T) {
	src := &fakeOverstay{records: []models.OverstayRecord{{TransactionRef: "1"}}}
	m := New(&fakeLogs{records: voltageBatch("230")}, src, DefaultOptions())
	if err := m.RefreshAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Snapshot().Generation != 1 || len(m.OverstayRecords()) != 1 {
		t.Errorf("RefreshAll did not refresh both feeds")
	}

	src.err = errors.New("overstay down")
	if err := m.RefreshAll(context.Background()); err == nil {
		t.Fatal("expected RefreshAll to report the overstay error")
	}
}

// delayedOverstay answers after delay unless ctx is cancelled first.
type delayedOverstay struct {
	delay   time.Duration
	records []models.OverstayRecord
}

func (d *delayedOverstay) FetchOverstay(ctx context.Context, _ int) ([]models.OverstayRecord, error) {
	select {
	case <-time.After(d.delay):
		return d.records, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRefreshAllFeedsAreIndependent(t *testing.T) {
	logs := &fakeLogs{err: errors.New("log api down")}
	src := &delayedOverstay{delay: 50 * time.Millisecond, records: []models.OverstayRecord{{TransactionRef: "1"}, {TransactionRef: "2"}}}
	m := New(logs, src, DefaultOptions())

	err := m.RefreshAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "log api down") {
		t.Fatalf("expected the log error, got %v", err)
	}
	if got := len(m.OverstayRecords()); got != 2 {
		t.Fatalf("overstay refresh was cancelled by the log failure: %d records", got)
	}
	if m.Status().Connected {
		t.Error("expected disconnected status")
	}
}

func TestRefreshAllReportsBothErrors(t *testing.T) {
	logs := &fakeLogs{err: errors.New("log api down")}
	src := &fakeOverstay{err: errors.New("overstay api down")}
	m := New(logs, src, DefaultOptions())

	err := m.RefreshAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "log api down") || !strings.Contains(err.Error(), "overstay api down") {
		t.Fatalf("expected both errors, got %v", err)
	}
}

func TestSetIntervalValidation(t *testing.T) {
	m := New(&fakeLogs{}, nil, DefaultOptions())
	if err := m.SetInterval(0); err == nil {
		t.Error("expected error for zero interval")
	}
	if err := m.SetInterval(-time.Second); err == nil {
		t.Error("expected error for negative interval")
	}
	if err := m.SetInterval(30 * time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Interval() != 30*time.Second {
		t.Errorf("interval = %v, want 30s", m.Interval())
	}
}

func TestAutoRefresh(t *testing.T) {
	logs := &fakeLogs{records: voltageBatch("230")}
	opts := DefaultOptions()
	opts.Interval = 10 * time.Millisecond
	m := New(logs, nil, opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.StartAutoRefresh(ctx)
	m.StartAutoRefresh(ctx)
	if !m.AutoRefreshing() {
		t.Fatal("expected auto refresh to be running")
	}

	deadline := time.Now().Add(2 * time.Second)
	for logs.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if logs.calls.Load() < 3 {
		t.Fatalf("expected at least 3 refreshes, got %d", logs.calls.Load())
	}

	// Changing the interval repeatedly while running must not block.
	for i := 0; i < 5; i++ {
		if err := m.SetInterval(time.Hour); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	m.StopAutoRefresh()
	if m.AutoRefreshing() {
		t.Fatal("expected auto refresh to be stopped")
	}
	calls := logs.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if logs.calls.Load() != calls {
		t.Error("refreshes continued after StopAutoRefresh")
	}
	m.StopAutoRefresh()
}

func TestCloseClosesPublishers(t *testing.T) {
	pub := &recordingPublisher{}
	m := New(&fakeLogs{}, nil, DefaultOptions(), pub)
	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pub.closed {
		t.Error("publisher was not closed")
	}
}
