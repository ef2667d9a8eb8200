// Package overstay classifies, filters and summarizes completed sessions
// from the overstay feed.
package overstay

import "ocpp-monitor/models"

// Threshold is the overstay boundary in minutes. Sessions at or above it
// count as overstays.
const Threshold = 30.0

type Classification struct {
	Severity   models.Severity `json:"severity"`
	StatusText string          `json:"statusText"`
}

// Classify maps overstay minutes to a tier. Boundary values land in the
// higher tier.
func Classify(minutes float64) Classification {
	switch {
	case minutes >= 120:
		return Classification{models.SeverityHigh, "Critical"}
	case minutes >= 60:
		return Classification{models.SeverityMedium, "Warning"}
	case minutes >= Threshold:
		return Classification{models.SeverityLow, "Minor"}
	default:
		return Classification{models.SeverityLow, "On Time"}
	}
}

// IsOverstay reports whether the record crosses Threshold.
func IsOverstay(r models.OverstayRecord) bool {
	return r.OverstayMinutes >= Threshold
}

// Classified pairs a record with its derived tier.
type Classified struct {
	models.OverstayRecord
	Classification Classification `json:"classification"`
}

func ClassifyAll(records []models.OverstayRecord) []Classified {
	out := make([]Classified, len(records))
	for i, r := range records {
		out[i] = Classified{OverstayRecord: r, Classification: Classify(r.OverstayMinutes)}
	}
	return out
}
