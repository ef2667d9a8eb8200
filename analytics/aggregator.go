package analytics

import (
	"math"
	"time"

	"ocpp-monitor/models"
)

// MetricsAggregator folds parsed fragments into batch statistics.
type MetricsAggregator struct {
	maxEnergyWh float64
	power       []float64
	voltage     []float64
	chargers    map[string]*models.ChargerActivity
	errorCount  int
	records     int
}

func NewMetricsAggregator() *MetricsAggregator {
	return &MetricsAggregator{
		chargers: make(map[string]*models.ChargerActivity),
	}
}

func (ma *MetricsAggregator) Add(f Fragment) {
	ma.records++

	for _, s := range f.Samples {
		switch s.Measurand {
		case models.MeasurandEnergy:
			// The register is cumulative, so the batch total is its peak.
			if s.Value > ma.maxEnergyWh {
				ma.maxEnergyWh = s.Value
			}
		case models.MeasurandPower:
			ma.power = append(ma.power, s.Value)
		case models.MeasurandVoltage:
			ma.voltage = append(ma.voltage, s.Value)
		}
	}

	if f.IsError {
		ma.errorCount++
	}

	if f.ChargerID != "" {
		ma.touch(f.ChargerID, f.Record.CreatedAt)
	}
}

func (ma *MetricsAggregator) touch(id string, at time.Time) {
	c, ok := ma.chargers[id]
	if !ok {
		c = &models.ChargerActivity{ChargerID: id, LastSeen: at}
		ma.chargers[id] = c
	}
	c.Count++
	if at.After(c.LastSeen) {
		c.LastSeen = at
	}
}

func (ma *MetricsAggregator) PowerReadings() []float64 { return ma.power }
func (ma *MetricsAggregator) VoltageReadings() []float64 { return ma.voltage }
func (ma *MetricsAggregator) ErrorCount() int { return ma.errorCount }

func (ma *MetricsAggregator) Chargers() map[string]models.ChargerActivity {
	out := make(map[string]models.ChargerActivity, len(ma.chargers))
	for id, c := range ma.chargers {
		out[id] = *c
	}
	return out
}

// Metrics derives the dashboard figures once the whole batch has been added.
func (ma *MetricsAggregator) Metrics(activeSessions, anomalyCount int) models.Metrics {
	return models.Metrics{
		TotalEnergyKWh: ma.maxEnergyWh / 1000,
		ActiveSessions: activeSessions,
		OnlineChargers: len(ma.chargers),
		AvgPowerKW:     AveragePowerKW(ma.power),
		HealthScorePct: HealthScore(ma.errorCount, ma.records, anomalyCount),
		ErrorCount:     ma.errorCount,
		TotalRecords:   ma.records,
		AnomalyCount:   anomalyCount,
	}
}

// AveragePowerKW is the mean of the W readings in kW, rounded to one decimal.
func AveragePowerKW(readings []float64) float64 {
	if len(readings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range readings {
		sum += r
	}
	return math.Round(sum/float64(len(readings))/1000*10) / 10
}

// HealthScore is 100 minus five times the error percentage minus two points
// per anomaly, floored at zero. An empty batch scores 100.
func HealthScore(errorCount, totalRecords, anomalyCount int) int {
	score := 100.0
	if totalRecords > 0 {
		score -= float64(errorCount) / float64(totalRecords) * 100 * 5
	}
	score -= float64(anomalyCount) * 2
	return int(math.Round(math.Max(0, score)))
}
