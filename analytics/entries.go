package analytics

import (
	"fmt"
	"strings"
	"time"

	"ocpp-monitor/models"
)

const previewLength = 200

type EntryType string

const (
	EntryError EntryType = "ERROR"
	EntryMeter EntryType = "METER"
	EntryInfo  EntryType = "INFO"
)

// Entry is the list view of one raw log record.
type Entry struct {
	Type      EntryType `json:"type"`
	Charger   string    `json:"charger,omitempty"`
	Preview   string    `json:"preview"`
	Timestamp time.Time `json:"timestamp"`
}

// ClassifyEntry labels a record for the log list. Error classification takes
// precedence over MeterValues.
func ClassifyEntry(r models.LogRecord) Entry {
	e := Entry{
		Type:      EntryInfo,
		Charger:   ExtractChargerID(r.Text),
		Preview:   preview(r.Text),
		Timestamp: r.CreatedAt,
	}
	switch {
	case IsErrorRecord(r.Text):
		e.Type = EntryError
	case strings.Contains(r.Text, MeterValuesMarker):
		e.Type = EntryMeter
	}
	return e
}

// Entries classifies the first limit records of the batch.
func Entries(records []models.LogRecord, limit int) []Entry {
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	out := make([]Entry, len(records))
	for i, r := range records {
		out[i] = ClassifyEntry(r)
	}
	return out
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}

type Insight struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Insights summarizes the snapshot for the dashboard cards.
func Insights(s *models.Snapshot) []Insight {
	insights := []Insight{}
	if n := s.Metrics.AnomalyCount; n > 0 {
		insights = append(insights, Insight{
			Type:        "danger",
			Title:       fmt.Sprintf("%d Anomalies Detected", n),
			Description: "System detected abnormal patterns requiring attention.",
		})
	}
	if s.MalformedFragments > 0 {
		insights = append(insights, Insight{
			Type:        "warning",
			Title:       fmt.Sprintf("%d Unreadable Meter Payloads", s.MalformedFragments),
			Description: "Some MeterValues records could not be decoded and were left out of the statistics.",
		})
	}
	return insights
}
