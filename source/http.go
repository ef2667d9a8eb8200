package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ocpp-monitor/models"
)

// HTTPSource reads from the monitoring API:
//
//	GET {base}/api/logs/machine/{limit}
//	GET {base}/api/overstay/records/{limit}
//	GET {base}/api/stations/list
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type logsResponse struct {
	Success bool               `json:"success"`
	Logs    []models.LogRecord `json:"logs"`
}

type overstayResponse struct {
	Success bool                    `json:"success"`
	Count   int                     `json:"count"`
	Records []models.OverstayRecord `json:"records"`
}

type stationsResponse struct {
	Success  bool             `json:"success"`
	Stations []models.Station `json:"stations"`
}

func (s *HTTPSource) FetchLogs(ctx context.Context, limit int) ([]models.LogRecord, error) {
	var resp logsResponse
	if err := s.get(ctx, "/api/logs/machine/"+strconv.Itoa(limit), &resp); err != nil {
		return nil, fmt.Errorf("fetch logs: %w", err)
	}
	if !resp.Success {
		return nil, nil
	}
	return resp.Logs, nil
}

func (s *HTTPSource) FetchOverstay(ctx context.Context, limit int) ([]models.OverstayRecord, error) {
	var resp overstayResponse
	if err := s.get(ctx, "/api/overstay/records/"+strconv.Itoa(limit), &resp); err != nil {
		return nil, fmt.Errorf("fetch overstay records: %w", err)
	}
	if !resp.Success {
		return nil, nil
	}
	return resp.Records, nil
}

func (s *HTTPSource) FetchStations(ctx context.Context) ([]models.Station, error) {
	var resp stationsResponse
	if err := s.get(ctx, "/api/stations/list", &resp); err != nil {
		return nil, fmt.Errorf("fetch stations: %w", err)
	}
	if !resp.Success || resp.Stations == nil {
		return []models.Station{}, nil
	}
	return resp.Stations, nil
}

func (s *HTTPSource) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
