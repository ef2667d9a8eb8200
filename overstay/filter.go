package overstay

import (
	"fmt"
	"math"
	"time"

	"ocpp-monitor/models"
)

type Mode string

const (
	ModeAll        Mode = "all"
	ModeOverstay   Mode = "overstay"
	ModeNoOverstay Mode = "no-overstay"
)

// ParseMode accepts "", "all", "overstay" and "no-overstay".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAll:
		return ModeAll, nil
	case ModeOverstay, ModeNoOverstay:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown overstay mode %q", s)
}

// Criteria narrows an overstay collection. Nil dates, an empty station and
// ModeAll (or "") each disable their predicate.
type Criteria struct {
	FromDate *time.Time
	ToDate   *time.Time
	Station  string
	Mode     Mode
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// endOfDay pins t's calendar day to 23:59:59 in t's location.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

// Match applies every active predicate.
func (c Criteria) Match(r models.OverstayRecord) bool {
	if c.FromDate != nil && r.EndTime.Before(startOfDay(*c.FromDate)) {
		return false
	}
	if c.ToDate != nil && r.EndTime.After(endOfDay(*c.ToDate)) {
		return false
	}
	if c.Station != "" && r.StationName != c.Station {
		return false
	}
	switch c.Mode {
	case ModeOverstay:
		return IsOverstay(r)
	case ModeNoOverstay:
		return !IsOverstay(r)
	}
	return true
}

// Filter returns the matching records in input order.
func Filter(records []models.OverstayRecord, c Criteria) []models.OverstayRecord {
	out := make([]models.OverstayRecord, 0, len(records))
	for _, r := range records {
		if c.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Placeholder stands in for averages and maxima of an empty set.
const Placeholder = "--"

type Stats struct {
	Count      int     `json:"count"`
	AvgMinutes float64 `json:"avgMinutes"`
	MaxMinutes float64 `json:"maxMinutes"`
	Avg        string  `json:"avg"`
	Max        string  `json:"max"`
}

func Summarize(records []models.OverstayRecord) Stats {
	if len(records) == 0 {
		return Stats{Avg: Placeholder, Max: Placeholder}
	}
	var total, longest float64
	for i, r := range records {
		total += r.OverstayMinutes
		if i == 0 || r.OverstayMinutes > longest {
			longest = r.OverstayMinutes
		}
	}
	avg := total / float64(len(records))
	return Stats{
		Count:      len(records),
		AvgMinutes: avg,
		MaxMinutes: longest,
		Avg:        FormatMinutes(avg),
		Max:        FormatMinutes(longest),
	}
}

// FormatMinutes renders whole hours and minutes, e.g. "1h 16m" or "45m".
func FormatMinutes(minutes float64) string {
	hours := int(math.Floor(minutes / 60))
	mins := int(math.Floor(math.Mod(minutes, 60)))
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// Stations lists distinct non-empty station names in first-seen order.
func Stations(records []models.OverstayRecord) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range records {
		if r.StationName == "" || seen[r.StationName] {
			continue
		}
		seen[r.StationName] = true
		out = append(out, r.StationName)
	}
	return out
}
