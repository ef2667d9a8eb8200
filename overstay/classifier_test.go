package overstay

import (
	"testing"

	"ocpp-monitor/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		minutes  float64
		severity models.Severity
		status   string
	}{
		{0, models.SeverityLow, "On Time"},
		{29.9, models.SeverityLow, "On Time"},
		{30, models.SeverityLow, "Minor"},
		{59, models.SeverityLow, "Minor"},
		{60, models.SeverityMedium, "Warning"},
		{119.5, models.SeverityMedium, "Warning"},
		{120, models.SeverityHigh, "Critical"},
		{600, models.SeverityHigh, "Critical"},
	}
	for _, tt := range tests {
		got := Classify(tt.minutes)
		if got.Severity != tt.severity || got.StatusText != tt.status {
			t.Errorf("Classify(%v) = %+v, want %s/%s", tt.minutes, got, tt.severity, tt.status)
		}
	}
}

func TestIsOverstay(t *testing.T) {
	if IsOverstay(models.OverstayRecord{OverstayMinutes: 29}) {
		t.Error("29 minutes should not be an overstay")
	}
	if !IsOverstay(models.OverstayRecord{OverstayMinutes: 30}) {
		t.Error("30 minutes should be an overstay")
	}
}

func TestClassifyAll(t *testing.T) {
	got := ClassifyAll([]models.OverstayRecord{{TransactionRef: "a", OverstayMinutes: 10}, {TransactionRef: "b", OverstayMinutes: 130}})
	if len(got) != 2 || got[0].TransactionRef != "a" || got[1].Classification.StatusText != "Critical" {
		t.Errorf("ClassifyAll = %+v", got)
	}
}
