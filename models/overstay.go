package models

import (
	"encoding/json"
	"time"
)

// OverstayRecord is a completed session from the overstay feed. Records are
// never modified once decoded.
type OverstayRecord struct {
	TransactionRef  string     `json:"TRANSACTIONREFERENCENO"`
	FirstName       string     `json:"FIRSTNAME"`
	LastName        string     `json:"LASTNAME"`
	StationName     string     `json:"STATIONNAME"`
	EndTime         time.Time  `json:"ENDTIME"`
	UnpluggedOn     *time.Time `json:"UNPLUGGEDON"`
	OverstayMinutes float64    `json:"OVERSTAY_MINUTES"`
	OverstayText    string     `json:"OVERSTAY_TIME"`
}

func (r OverstayRecord) RiderName() string {
	return r.FirstName + " " + r.LastName
}

func (r *OverstayRecord) UnmarshalJSON(data []byte) error {
	var wire struct {
		TransactionRef  json.RawMessage `json:"TRANSACTIONREFERENCENO"`
		FirstName       string          `json:"FIRSTNAME"`
		LastName        string          `json:"LASTNAME"`
		StationName     *string         `json:"STATIONNAME"`
		EndTime         string          `json:"ENDTIME"`
		UnpluggedOn     *string         `json:"UNPLUGGEDON"`
		OverstayMinutes *float64        `json:"OVERSTAY_MINUTES"`
		OverstayText    *string         `json:"OVERSTAY_TIME"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*r = OverstayRecord{
		TransactionRef: rawString(wire.TransactionRef),
		FirstName:      wire.FirstName,
		LastName:       wire.LastName,
	}
	if wire.StationName != nil {
		r.StationName = *wire.StationName
	}
	if t, err := ParseTimestamp(wire.EndTime); err == nil {
		r.EndTime = t
	}
	if wire.UnpluggedOn != nil {
		if t, err := ParseTimestamp(*wire.UnpluggedOn); err == nil {
			r.UnpluggedOn = &t
		}
	}
	if wire.OverstayMinutes != nil {
		r.OverstayMinutes = *wire.OverstayMinutes
	}
	if wire.OverstayText != nil {
		r.OverstayText = *wire.OverstayText
	}
	return nil
}

// rawString renders a JSON scalar that producers emit either quoted or bare.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}
