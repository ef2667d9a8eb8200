package analytics

import (
	"time"

	"ocpp-monitor/models"
)

// Options tune a single analysis pass.
type Options struct {
	// MaxPoints bounds each sampled chart series.
	MaxPoints int
	// MaxAnomalies and MaxTransactions cap the stored lists; zero means
	// unbounded. Counters keep counting past the cap.
	MaxAnomalies    int
	MaxTransactions int
	// Now stamps the snapshot; time.Now when nil.
	Now func() time.Time
}

func DefaultOptions() Options {
	return Options{MaxPoints: DefaultMaxPoints}
}

// Analyze runs one full pass over the batch and returns a fresh snapshot.
// It has no side effects and never fails; unusable records simply
// contribute nothing.
func Analyze(records []models.LogRecord, opts Options) *models.Snapshot {
	if opts.MaxPoints <= 0 {
		opts.MaxPoints = DefaultMaxPoints
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	detector := NewAnomalyDetector()
	tracker := NewTransactionTracker(opts.MaxTransactions)
	agg := NewMetricsAggregator()

	snap := models.EmptySnapshot()
	anomalyCount := 0

	for _, record := range records {
		f := Parse(record)
		switch f.Status {
		case ParseOK:
			snap.ParsedFragments++
		case ParseMalformed:
			snap.MalformedFragments++
		}

		for _, a := range detector.Detect(f) {
			anomalyCount++
			if opts.MaxAnomalies > 0 && len(snap.Anomalies) >= opts.MaxAnomalies {
				snap.DroppedAnomalies++
				continue
			}
			snap.Anomalies = append(snap.Anomalies, a)
		}

		tracker.Observe(f)
		agg.Add(f)
	}

	snap.AnalyzedAt = now()
	snap.Metrics = agg.Metrics(tracker.ActiveSessions(), anomalyCount)
	snap.Transactions = tracker.Transactions()
	snap.DroppedTransactions = tracker.Dropped()
	snap.Chargers = agg.Chargers()
	snap.Series = models.Series{
		Power:   Points(Sample(agg.PowerReadings(), opts.MaxPoints)),
		Voltage: Points(Sample(agg.VoltageReadings(), opts.MaxPoints)),
	}
	snap.Records = records
	return snap
}
