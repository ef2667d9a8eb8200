package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// LogRecord is one raw protocol log line as delivered by the log source.
type LogRecord struct {
	Text      string    `json:"LOGS"`
	CreatedAt time.Time `json:"CREATEDON"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts the timestamp shapes emitted by the monitoring API.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// UnmarshalJSON tolerates a missing or unparsable CREATEDON; the record
// keeps a zero timestamp rather than failing the whole batch.
func (r *LogRecord) UnmarshalJSON(data []byte) error {
	var wire struct {
		Text      *string `json:"LOGS"`
		CreatedAt string  `json:"CREATEDON"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Text != nil {
		r.Text = *wire.Text
	}
	if t, err := ParseTimestamp(wire.CreatedAt); err == nil {
		r.CreatedAt = t
	}
	return nil
}

// ValidateBatch checks a pushed batch before it is analyzed.
func ValidateBatch(records []LogRecord) error {
	if len(records) == 0 {
		return errors.New("batch must contain at least one record")
	}
	for i, r := range records {
		if r.CreatedAt.IsZero() {
			return fmt.Errorf("record %d: CREATEDON is required", i)
		}
	}
	return nil
}
