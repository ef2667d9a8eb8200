package export

import (
	"encoding/json"
	"io"
	"time"

	"ocpp-monitor/models"
)

const reportLogLimit = 100

type ReportStats struct {
	TotalEnergyKWh float64 `json:"totalEnergy"`
	ActiveSessions int     `json:"activeSessions"`
	HealthScorePct int     `json:"systemHealth"`
}

// Report is the JSON document offered as ocpp-report-YYYY-MM-DD.json.
type Report struct {
	Timestamp       time.Time               `json:"timestamp"`
	SnapshotID      string                  `json:"snapshotId,omitempty"`
	Stats           ReportStats             `json:"stats"`
	Anomalies       []models.Anomaly        `json:"anomalies"`
	Transactions    []models.Transaction    `json:"transactions"`
	OverstayRecords []models.OverstayRecord `json:"overstayRecords"`
	Logs            []models.LogRecord      `json:"logs"`
}

func NewReport(snap *models.Snapshot, overstayRecords []models.OverstayRecord, at time.Time) Report {
	logs := snap.Records
	if len(logs) > reportLogLimit {
		logs = logs[:reportLogLimit]
	}
	if logs == nil {
		logs = []models.LogRecord{}
	}
	if overstayRecords == nil {
		overstayRecords = []models.OverstayRecord{}
	}
	return Report{
		Timestamp:  at.UTC(),
		SnapshotID: snap.ID,
		Stats: ReportStats{
			TotalEnergyKWh: snap.Metrics.TotalEnergyKWh,
			ActiveSessions: snap.Metrics.ActiveSessions,
			HealthScorePct: snap.Metrics.HealthScorePct,
		},
		Anomalies:       snap.Anomalies,
		Transactions:    snap.Transactions,
		OverstayRecords: overstayRecords,
		Logs:            logs,
	}
}

func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
