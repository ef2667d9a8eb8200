package influx

import (
	"context"
	"fmt"

	"ocpp-monitor/config"
	"ocpp-monitor/models"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Writer records every committed snapshot as InfluxDB points, giving the
// trend history a single batch window does not keep.
type Writer struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

// NewWriter connects to InfluxDB v2 and verifies it is healthy.
func NewWriter(ctx context.Context, cfg config.InfluxDBConfig) (*Writer, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}

	return &Writer{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

func (w *Writer) Publish(ctx context.Context, snap *models.Snapshot) error {
	if err := w.writeAPI.WritePoint(ctx, Points(snap)...); err != nil {
		return fmt.Errorf("write snapshot points: %w", err)
	}
	return nil
}

// Points converts a snapshot into the measurements written per pass.
func Points(snap *models.Snapshot) []*write.Point {
	m := snap.Metrics
	points := []*write.Point{
		write.NewPoint(
			"ocpp_snapshot",
			map[string]string{},
			map[string]interface{}{
				"total_energy_kwh": m.TotalEnergyKWh,
				"active_sessions":  m.ActiveSessions,
				"online_chargers":  m.OnlineChargers,
				"avg_power_kw":     m.AvgPowerKW,
				"health_score_pct": m.HealthScorePct,
				"error_count":      m.ErrorCount,
				"anomaly_count":    m.AnomalyCount,
				"total_records":    m.TotalRecords,
				"malformed":        snap.MalformedFragments,
			},
			snap.AnalyzedAt,
		),
	}

	for id, c := range snap.Chargers {
		points = append(points, write.NewPoint(
			"charger_activity",
			map[string]string{"charger_id": id},
			map[string]interface{}{"count": c.Count},
			snap.AnalyzedAt,
		))
	}

	for _, a := range snap.Anomalies {
		charger := "unknown"
		if a.Charger != nil {
			charger = *a.Charger
		}
		points = append(points, write.NewPoint(
			"anomaly",
			map[string]string{
				"type":       string(a.Type),
				"severity":   string(a.Severity),
				"charger_id": charger,
			},
			map[string]interface{}{"message": a.Message},
			a.Timestamp,
		))
	}
	return points
}

func (w *Writer) Close() error {
	w.client.Close()
	return nil
}
