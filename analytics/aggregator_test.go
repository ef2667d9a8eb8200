package analytics

import (
	"testing"
	"time"

	"ocpp-monitor/models"
)

func TestHealthScore(t *testing.T) {
	tests := []struct {
		errors, total, anomalies int
		want                     int
	}{
		{0, 100, 0, 100},
		{0, 100, 1, 98},
		{1, 100, 0, 95},
		{2, 100, 3, 84},
		{10, 100, 0, 50},
		{20, 100, 0, 0},
		{0, 100, 60, 0},
		{1, 3, 0, 0},
		{0, 0, 0, 100},
		{1, 7, 0, 29}, // 100 - 71.43 rounds to 29
	}
	for _, tt := range tests {
		if got := HealthScore(tt.errors, tt.total, tt.anomalies); got != tt.want {
			t.Errorf("HealthScore(%d, %d, %d) = %d, want %d", tt.errors, tt.total, tt.anomalies, got, tt.want)
		}
	}
}

func TestAveragePowerKW(t *testing.T) {
	tests := []struct {
		in   []float64
		want float64
	}{
		{nil, 0},
		{[]float64{7400}, 7.4},
		{[]float64{7000, 7200}, 7.1},
		{[]float64{3333, 3333, 3334}, 3.3},
	}
	for _, tt := range tests {
		if got := AveragePowerKW(tt.in); got != tt.want {
			t.Errorf("AveragePowerKW(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAggregatorEnergyIsPeakNotSum(t *testing.T) {
	agg := NewMetricsAggregator()
	for _, v := range []float64{5000, 12000, 8000} {
		agg.Add(Fragment{Samples: []models.MeasurementSample{{Measurand: models.MeasurandEnergy, Value: v}}})
	}
	if got := agg.Metrics(0, 0).TotalEnergyKWh; got != 12 {
		t.Errorf("TotalEnergyKWh = %v, want 12", got)
	}
}

func TestAggregatorChargerActivity(t *testing.T) {
	agg := NewMetricsAggregator()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	// Most recent first, the way the monitoring API returns logs.
	for i, id := range []string{"CP1", "CP2", "CP1", "CP1"} {
		agg.Add(Fragment{
			Record:    models.LogRecord{CreatedAt: base.Add(-time.Duration(i) * time.Minute)},
			ChargerID: id,
		})
	}
	agg.Add(Fragment{})

	chargers := agg.Chargers()
	if len(chargers) != 2 {
		t.Fatalf("got %d chargers, want 2", len(chargers))
	}
	if c := chargers["CP1"]; c.Count != 3 || !c.LastSeen.Equal(base) {
		t.Errorf("CP1 = %+v, want count 3 last seen %v", c, base)
	}
	if c := chargers["CP2"]; c.Count != 1 {
		t.Errorf("CP2 = %+v, want count 1", c)
	}

	m := agg.Metrics(0, 0)
	if m.OnlineChargers != 2 || m.TotalRecords != 5 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestAggregatorLastSeenIsLatestInAnyOrder(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	agg := NewMetricsAggregator()
	// Oldest first: the first sighting is not the latest one.
	for _, offset := range []time.Duration{0, 5 * time.Minute, 2 * time.Minute} {
		agg.Add(Fragment{Record: models.LogRecord{CreatedAt: base.Add(offset)}, ChargerID: "CP1"})
	}
	if got := agg.Chargers()["CP1"].LastSeen; !got.Equal(base.Add(5 * time.Minute)) {
		t.Errorf("LastSeen = %v, want %v", got, base.Add(5*time.Minute))
	}
}
