// Package export serializes the monitor's current state for download.
package export

import (
	"encoding/csv"
	"io"
	"time"

	"ocpp-monitor/analytics"
	"ocpp-monitor/models"
	"ocpp-monitor/overstay"
)

const notAvailable = "N/A"

// WriteLogsCSV writes Timestamp,Type,Charger,Content rows for every record.
func WriteLogsCSV(w io.Writer, records []models.LogRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Timestamp", "Type", "Charger", "Content"}); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.CreatedAt.UTC().Format(time.RFC3339),
			"LOG",
			analytics.ExtractChargerID(r.Text),
			r.Text,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteOverstayCSV writes the filtered overstay table with its status column.
func WriteOverstayCSV(w io.Writer, records []models.OverstayRecord) error {
	cw := csv.NewWriter(w)
	header := []string{"Transaction ID", "User Name", "Station", "End Time", "Unplugged Time", "Overstay Duration", "Status"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		station := r.StationName
		if station == "" {
			station = notAvailable
		}
		unplugged := notAvailable
		if r.UnpluggedOn != nil {
			unplugged = r.UnpluggedOn.Format(time.RFC3339)
		}
		row := []string{
			r.TransactionRef,
			r.RiderName(),
			station,
			r.EndTime.Format(time.RFC3339),
			unplugged,
			r.OverstayText,
			overstay.Classify(r.OverstayMinutes).StatusText,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename builds names like ocpp-logs-2024-05-01.csv.
func Filename(prefix, ext string, at time.Time) string {
	return prefix + "-" + at.UTC().Format("2006-01-02") + "." + ext
}
