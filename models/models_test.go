package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	for _, s := range []string{
		"2024-05-01T10:30:00Z",
		"2024-05-01T10:30:00.000Z",
		"2024-05-01T10:30:00.000",
		"2024-05-01T10:30:00",
		"2024-05-01 10:30:00",
		" 2024-05-01 10:30:00.000 ",
	} {
		got, err := ParseTimestamp(s)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) error: %v", s, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", s, got, want)
		}
	}

	for _, s := range []string{"", "yesterday", "01/05/2024"} {
		if _, err := ParseTimestamp(s); err == nil {
			t.Errorf("ParseTimestamp(%q) should fail", s)
		}
	}
}

func TestLogRecordUnmarshal(t *testing.T) {
	var records []LogRecord
	data := `[{"LOGS":"a","CREATEDON":"2024-05-01T10:30:00Z"},{"LOGS":"b"},{"CREATEDON":"nope"}]`
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 || records[0].Text != "a" || records[0].CreatedAt.IsZero() {
		t.Fatalf("unexpected records: %+v", records)
	}
	if !records[1].CreatedAt.IsZero() || records[2].Text != "" {
		t.Fatalf("unexpected tolerant decode: %+v", records[1:])
	}
}

func TestValidateBatch(t *testing.T) {
	if err := ValidateBatch(nil); err == nil {
		t.Error("expected error for empty batch")
	}
	if err := ValidateBatch([]LogRecord{{Text: "x"}}); err == nil {
		t.Error("expected error for missing CREATEDON")
	}
	if err := ValidateBatch([]LogRecord{{Text: "x", CreatedAt: time.Now()}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOverstayRecordUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantRef   string
		unplugged bool
		station   string
	}{
		{"numeric ref", `{"TRANSACTIONREFERENCENO":77,"ENDTIME":"2024-05-01 10:00:00"}`, "77", false, ""},
		{"string ref", `{"TRANSACTIONREFERENCENO":"TX-9","STATIONNAME":"BGC","UNPLUGGEDON":"2024-05-01 11:00:00"}`, "TX-9", true, "BGC"},
		{"null fields", `{"TRANSACTIONREFERENCENO":null,"STATIONNAME":null,"UNPLUGGEDON":null,"OVERSTAY_MINUTES":null}`, "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r OverstayRecord
			if err := json.Unmarshal([]byte(tt.data), &r); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.TransactionRef != tt.wantRef || (r.UnpluggedOn != nil) != tt.unplugged || r.StationName != tt.station {
				t.Fatalf("unexpected record: %+v", r)
			}
		})
	}
}

func TestEmptySnapshot(t *testing.T) {
	s := EmptySnapshot()
	if s.Metrics.HealthScorePct != 100 {
		t.Errorf("expected health 100, got %d", s.Metrics.HealthScorePct)
	}
	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	json.Unmarshal(out, &m)
	if _, ok := m["Records"]; ok {
		t.Error("raw records should not be serialized")
	}
	if m["anomalies"] == nil || m["transactions"] == nil {
		t.Errorf("expected empty arrays, got %s", out)
	}
}

func TestTopChargers(t *testing.T) {
	s := EmptySnapshot()
	s.Chargers = map[string]ChargerActivity{
		"CP3": {ChargerID: "CP3", Count: 2},
		"CP1": {ChargerID: "CP1", Count: 5},
		"CP2": {ChargerID: "CP2", Count: 2},
	}
	top := s.TopChargers(2)
	if len(top) != 2 || top[0].ChargerID != "CP1" || top[1].ChargerID != "CP2" {
		t.Errorf("unexpected ranking: %+v", top)
	}
	if got := len(s.TopChargers(0)); got != 3 {
		t.Errorf("TopChargers(0) returned %d", got)
	}
}

func TestTransactionDuration(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tx := Transaction{StartTime: start}
	if got := tx.DurationMinutes(start.Add(95*time.Second + 44*time.Minute)); got != 45 {
		t.Errorf("DurationMinutes = %d, want 45", got)
	}
	if got := (Transaction{}).DurationMinutes(start); got != 0 {
		t.Errorf("zero start DurationMinutes = %d", got)
	}
}

func TestSummarizeStations(t *testing.T) {
	stations := []Station{
		{Name: "BGC", Chargers: []Charger{{Name: "CP1", Status: ChargerOnline}, {Name: "CP2", Status: "offline"}, {Name: "CP3", Status: "Online"}}},
		{Name: "Empty"},
	}
	got := SummarizeStations(stations)
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(got))
	}
	// Status matching is exact, as the API reports lowercase statuses.
	if got[0].OnlineCount != 1 || got[0].TotalCount != 3 {
		t.Errorf("BGC = %d/%d, want 1/3", got[0].OnlineCount, got[0].TotalCount)
	}
	if got[1].OnlineCount != 0 || got[1].TotalCount != 0 || got[1].Chargers == nil {
		t.Errorf("Empty = %+v", got[1])
	}
}
