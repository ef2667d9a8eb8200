package models

import (
	"sort"
	"time"
)

type Measurand int

const (
	MeasurandOther Measurand = iota
	MeasurandEnergy
	MeasurandPower
	MeasurandVoltage
)

func (m Measurand) String() string {
	switch m {
	case MeasurandEnergy:
		return "energy"
	case MeasurandPower:
		return "power"
	case MeasurandVoltage:
		return "voltage"
	default:
		return "other"
	}
}

type MeasurementSample struct {
	Measurand Measurand
	Value     float64
}

// Transaction is an in-progress charging session observed in MeterValues
// traffic. Energy and Power are never populated by the analysis pass.
type Transaction struct {
	ID        string    `json:"id"`
	Charger   string    `json:"charger"`
	StartTime time.Time `json:"startTime"`
	Status    string    `json:"status"`
	Energy    float64   `json:"energy"`
	Power     float64   `json:"power"`
}

// DurationMinutes is the whole number of minutes the session has been open at now.
func (t Transaction) DurationMinutes(now time.Time) int {
	if t.StartTime.IsZero() {
		return 0
	}
	return int(now.Sub(t.StartTime) / time.Minute)
}

const TransactionActive = "active"

type AnomalyType string

const AnomalyVoltage AnomalyType = "voltage"

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Anomaly struct {
	Type      AnomalyType `json:"type"`
	Severity  Severity    `json:"severity"`
	Message   string      `json:"message"`
	Charger   *string     `json:"charger"`
	Timestamp time.Time   `json:"timestamp"`
}

// ChargerActivity counts a charger's records in the batch. LastSeen is the
// latest timestamp among them regardless of batch order; the dashboard this
// replaces kept the first sighting instead, which is the oldest record only
// when the batch happens to be sorted ascending.
type ChargerActivity struct {
	ChargerID string    `json:"chargerId"`
	Count     int       `json:"count"`
	LastSeen  time.Time `json:"lastSeen"`
}

// Metrics is the aggregate block shown on the dashboard header.
type Metrics struct {
	TotalEnergyKWh float64 `json:"totalEnergyKwh"`
	ActiveSessions int     `json:"activeSessions"`
	OnlineChargers int     `json:"onlineChargers"`
	AvgPowerKW     float64 `json:"avgPowerKw"`
	HealthScorePct int     `json:"healthScorePct"`
	ErrorCount     int     `json:"errorCount"`
	TotalRecords   int     `json:"totalRecords"`
	AnomalyCount   int     `json:"anomalyCount"`
}

type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type Series struct {
	Power   []SeriesPoint `json:"power"`
	Voltage []SeriesPoint `json:"voltage"`
}

// Snapshot is the complete derived state of one analysis pass. A new pass
// replaces the previous snapshot wholesale.
type Snapshot struct {
	ID           string                     `json:"id"`
	Generation   uint64                     `json:"generation"`
	AnalyzedAt   time.Time                  `json:"analyzedAt"`
	Metrics      Metrics                    `json:"metrics"`
	Transactions []Transaction              `json:"transactions"`
	Anomalies    []Anomaly                  `json:"anomalies"`
	Chargers     map[string]ChargerActivity `json:"chargers"`
	Series       Series                     `json:"series"`

	ParsedFragments     int `json:"parsedFragments"`
	MalformedFragments  int `json:"malformedFragments"`
	DroppedAnomalies    int `json:"droppedAnomalies"`
	DroppedTransactions int `json:"droppedTransactions"`

	Records []LogRecord `json:"-"`
}

// EmptySnapshot is what readers see before the first batch is analyzed.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Metrics:      Metrics{HealthScorePct: 100},
		Transactions: []Transaction{},
		Anomalies:    []Anomaly{},
		Chargers:     map[string]ChargerActivity{},
		Series:       Series{Power: []SeriesPoint{}, Voltage: []SeriesPoint{}},
	}
}

// TopChargers ranks chargers by occurrence count, busiest first.
func (s *Snapshot) TopChargers(n int) []ChargerActivity {
	out := make([]ChargerActivity, 0, len(s.Chargers))
	for _, c := range s.Chargers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ChargerID < out[j].ChargerID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
