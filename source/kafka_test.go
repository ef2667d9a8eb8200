package source

import (
	"testing"
	"time"
)

func TestDecodeMessage(t *testing.T) {
	broker := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		value    string
		wantText string
		wantTime time.Time
	}{
		{
			name:     "json with timestamp",
			value:    `{"LOGS":"Heartbeat from CP1: {}","CREATEDON":"2024-05-01T10:00:00Z"}`,
			wantText: "Heartbeat from CP1: {}",
			wantTime: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:     "json without timestamp",
			value:    `{"LOGS":"Heartbeat from CP1: {}"}`,
			wantText: "Heartbeat from CP1: {}",
			wantTime: broker,
		},
		{
			name:     "bare line",
			value:    `MeterValues from CP2: {"transactionId":3}`,
			wantText: `MeterValues from CP2: {"transactionId":3}`,
			wantTime: broker,
		},
		{
			name:     "json without LOGS",
			value:    `{"other":1}`,
			wantText: `{"other":1}`,
			wantTime: broker,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DecodeMessage([]byte(tt.value), broker)
			if r.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", r.Text, tt.wantText)
			}
			if !r.CreatedAt.Equal(tt.wantTime) {
				t.Errorf("CreatedAt = %v, want %v", r.CreatedAt, tt.wantTime)
			}
		})
	}
}
