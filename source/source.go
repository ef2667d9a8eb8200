// Package source fetches log batches and overstay records from the
// collaborators that produce them.
package source

import (
	"context"

	"ocpp-monitor/models"
)

// LogSource returns the current batch of up to limit log records.
type LogSource interface {
	FetchLogs(ctx context.Context, limit int) ([]models.LogRecord, error)
}

// OverstaySource returns up to limit completed-session records.
type OverstaySource interface {
	FetchOverstay(ctx context.Context, limit int) ([]models.OverstayRecord, error)
}

// StationSource lists stations and their chargers.
type StationSource interface {
	FetchStations(ctx context.Context) ([]models.Station, error)
}
