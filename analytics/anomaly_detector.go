package analytics

import (
	"strconv"

	"ocpp-monitor/models"
)

const (
	DefaultMinVoltage = 210.0
	DefaultMaxVoltage = 240.0
)

// AnomalyDetector flags voltage samples outside the safe band. It keeps no
// state between records, so repeated readings produce repeated anomalies.
type AnomalyDetector struct {
	minVoltage float64
	maxVoltage float64
}

func NewAnomalyDetector() *AnomalyDetector {
	return &AnomalyDetector{
		minVoltage: DefaultMinVoltage,
		maxVoltage: DefaultMaxVoltage,
	}
}

// IsAbnormalVoltage reports whether v lies outside [min, max].
func (ad *AnomalyDetector) IsAbnormalVoltage(v float64) bool {
	return v < ad.minVoltage || v > ad.maxVoltage
}

// Detect returns one anomaly per out-of-band voltage sample in the fragment.
func (ad *AnomalyDetector) Detect(f Fragment) []models.Anomaly {
	var out []models.Anomaly
	for _, s := range f.Samples {
		if s.Measurand != models.MeasurandVoltage || !ad.IsAbnormalVoltage(s.Value) {
			continue
		}
		out = append(out, models.Anomaly{
			Type:      models.AnomalyVoltage,
			Severity:  models.SeverityHigh,
			Message:   "Abnormal voltage: " + strconv.FormatFloat(s.Value, 'f', -1, 64) + "V",
			Charger:   chargerRef(f.ChargerID),
			Timestamp: f.Record.CreatedAt,
		})
	}
	return out
}

func chargerRef(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
