package overstay

import (
	"ocpp-monitor/models"
	"ocpp-monitor/pagination"
)

// Result is one rendered page of the overstay table.
type Result struct {
	Records  []Classified    `json:"records"`
	Stats    Stats           `json:"stats"`
	Page     pagination.Page `json:"page"`
	Stations []string        `json:"stations"`
	Total    int             `json:"total"`
}

// Query filters records, summarizes the filtered set and cuts out the
// requested page.
func Query(records []models.OverstayRecord, c Criteria, page, pageSize int) Result {
	filtered := Filter(records, c)
	p := pagination.Compute(len(filtered), page, pageSize)
	return Result{
		Records:  ClassifyAll(filtered[p.Start:p.End]),
		Stats:    Summarize(filtered),
		Page:     p,
		Stations: Stations(records),
		Total:    len(records),
	}
}
