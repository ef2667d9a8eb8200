package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"ocpp-monitor/analytics"
	"ocpp-monitor/export"
	"ocpp-monitor/models"
	"ocpp-monitor/monitor"
	"ocpp-monitor/overstay"
	"ocpp-monitor/pagination"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

const (
	defaultTopChargers = 15
	defaultLogEntries  = 20
	maxBodyBytes       = 8 << 20
)

// Monitor is the part of monitor.Monitor the HTTP layer drives.
type Monitor interface {
	Snapshot() *models.Snapshot
	Status() monitor.Status
	Ingest(ctx context.Context, records []models.LogRecord) *models.Snapshot
	RefreshAll(ctx context.Context) error
	SetInterval(d time.Duration) error
	Interval() time.Duration
	StartAutoRefresh(ctx context.Context)
	StopAutoRefresh()
	AutoRefreshing() bool
	OverstayRecords() []models.OverstayRecord
	QueryOverstay(c overstay.Criteria, page, pageSize int) overstay.Result
}

// SnapshotReader serves snapshots published by any monitor instance.
type SnapshotReader interface {
	GetSnapshot(ctx context.Context) (*models.Snapshot, error)
}

// StationSource lists stations on demand.
type StationSource interface {
	FetchStations(ctx context.Context) ([]models.Station, error)
}

// Archiver stores a report somewhere durable and returns its location.
type Archiver interface {
	Archive(ctx context.Context, r export.Report) (string, error)
}

type MonitorHandler struct {
	monitor  Monitor
	cache    SnapshotReader
	archiver Archiver
	stations StationSource

	// background outlives individual requests; auto refresh runs on it.
	background context.Context
	now        func() time.Time
}

// NewMonitorHandler wires the HTTP surface. cache, archiver and stations may be nil.
func NewMonitorHandler(background context.Context, m Monitor, cache SnapshotReader, archiver Archiver, stations StationSource) *MonitorHandler {
	return &MonitorHandler{
		monitor:    m,
		cache:      cache,
		archiver:   archiver,
		stations:   stations,
		background: background,
		now:        time.Now,
	}
}

// NewRouter registers every route on a gorilla/mux router.
func NewRouter(h *MonitorHandler) *mux.Router {
	r := mux.NewRouter()
	r.Use(instrument)

	r.HandleFunc("/health", HealthCheck).Methods("GET")
	r.Path("/metrics").Handler(promhttp.Handler())

	r.HandleFunc("/snapshot", h.HandleSnapshot).Methods("GET")
	r.HandleFunc("/snapshot/cached", h.HandleCachedSnapshot).Methods("GET")
	r.HandleFunc("/metrics/summary", h.HandleSummary).Methods("GET")
	r.HandleFunc("/anomalies", h.HandleAnomalies).Methods("GET")
	r.HandleFunc("/transactions", h.HandleTransactions).Methods("GET")
	r.HandleFunc("/chargers", h.HandleChargers).Methods("GET")
	r.HandleFunc("/series", h.HandleSeries).Methods("GET")
	r.HandleFunc("/insights", h.HandleInsights).Methods("GET")
	r.HandleFunc("/status", h.HandleStatus).Methods("GET")
	r.HandleFunc("/logs", h.HandleLogEntries).Methods("GET")
	r.HandleFunc("/logs", h.HandleIngest).Methods("POST")

	r.HandleFunc("/refresh", h.HandleRefresh).Methods("POST")
	r.HandleFunc("/refresh/interval", h.HandleSetInterval).Methods("PUT")
	r.HandleFunc("/refresh/auto", h.HandleAutoRefresh).Methods("POST")

	r.HandleFunc("/overstay", h.HandleOverstay).Methods("GET")
	r.HandleFunc("/overstay/stations", h.HandleStations).Methods("GET")
	r.HandleFunc("/stations", h.HandleStationGrid).Methods("GET")

	r.HandleFunc("/export/logs.csv", h.HandleExportLogs).Methods("GET")
	r.HandleFunc("/export/overstay.csv", h.HandleExportOverstay).Methods("GET")
	r.HandleFunc("/export/report", h.HandleExportReport).Methods("GET")
	r.HandleFunc("/export/report/archive", h.HandleArchiveReport).Methods("POST")

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		requestDurationSeconds.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *MonitorHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.Snapshot())
}

func (h *MonitorHandler) HandleCachedSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot cache is not configured")
		return
	}
	snap, err := h.cache.GetSnapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get snapshot: "+err.Error())
		return
	}
	if snap == nil {
		writeError(w, http.StatusNotFound, "no snapshot cached")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *MonitorHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.Snapshot().Metrics)
}

func (h *MonitorHandler) HandleAnomalies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.Snapshot().Anomalies)
}

type transactionView struct {
	models.Transaction
	DurationMinutes int `json:"durationMinutes"`
}

func (h *MonitorHandler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	txs := h.monitor.Snapshot().Transactions
	out := make([]transactionView, len(txs))
	for i, tx := range txs {
		out[i] = transactionView{Transaction: tx, DurationMinutes: tx.DurationMinutes(now)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *MonitorHandler) HandleChargers(w http.ResponseWriter, r *http.Request) {
	top, err := intParam(r, "top", defaultTopChargers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.monitor.Snapshot().TopChargers(top))
}

// HandleSeries returns the snapshot series, resampled further when
// maxPoints is below the snapshot's own bound.
func (h *MonitorHandler) HandleSeries(w http.ResponseWriter, r *http.Request) {
	series := h.monitor.Snapshot().Series
	maxPoints, err := intParam(r, "maxPoints", 0)
	if err != nil || maxPoints < 0 {
		writeError(w, http.StatusBadRequest, "maxPoints must be a non-negative integer")
		return
	}
	if maxPoints > 0 {
		series = models.Series{
			Power:   resample(series.Power, maxPoints),
			Voltage: resample(series.Voltage, maxPoints),
		}
	}
	writeJSON(w, http.StatusOK, series)
}

func resample(points []models.SeriesPoint, maxPoints int) []models.SeriesPoint {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	return analytics.Points(analytics.Sample(values, maxPoints))
}

func (h *MonitorHandler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, analytics.Insights(h.monitor.Snapshot()))
}

func (h *MonitorHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"source":          h.monitor.Status(),
		"autoRefresh":     h.monitor.AutoRefreshing(),
		"intervalSeconds": h.monitor.Interval().Seconds(),
		"generation":      h.monitor.Snapshot().Generation,
	})
}

func (h *MonitorHandler) HandleLogEntries(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultLogEntries)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, analytics.Entries(h.monitor.Snapshot().Records, limit))
}

func (h *MonitorHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var records []models.LogRecord
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&records); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := models.ValidateBatch(records); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := h.monitor.Ingest(r.Context(), records)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "accepted",
		"records":    len(records),
		"generation": snap.Generation,
		"metrics":    snap.Metrics,
	})
}

func (h *MonitorHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.monitor.RefreshAll(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":  err.Error(),
			"status": h.monitor.Status(),
		})
		return
	}
	writeJSON(w, http.StatusOK, h.monitor.Snapshot().Metrics)
}

func (h *MonitorHandler) HandleSetInterval(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Seconds float64 `json:"seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := h.monitor.SetInterval(time.Duration(body.Seconds * float64(time.Second))); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"intervalSeconds": h.monitor.Interval().Seconds()})
}

func (h *MonitorHandler) HandleAutoRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if body.Enabled {
		h.monitor.StartAutoRefresh(h.background)
	} else {
		h.monitor.StopAutoRefresh()
	}
	writeJSON(w, http.StatusOK, map[string]bool{"autoRefresh": h.monitor.AutoRefreshing()})
}

func (h *MonitorHandler) HandleOverstay(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := intParam(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pageSize, err := intParam(r, "pageSize", pagination.DefaultPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.monitor.QueryOverstay(criteria, page, pageSize)
	writeJSON(w, http.StatusOK, map[string]any{
		"result":  result,
		"summary": result.Page.Summary(),
	})
}

func (h *MonitorHandler) HandleStations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, overstay.Stations(h.monitor.OverstayRecords()))
}

// HandleStationGrid fetches the station list upstream and adds
// online/total charger counts per station.
func (h *MonitorHandler) HandleStationGrid(w http.ResponseWriter, r *http.Request) {
	if h.stations == nil {
		writeError(w, http.StatusServiceUnavailable, "station source is not configured")
		return
	}
	stations, err := h.stations.FetchStations(r.Context())
	if err != nil {
		slog.Warn("station list failed", "error", err)
		writeError(w, http.StatusBadGateway, "Error loading stations: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.SummarizeStations(stations))
}

func (h *MonitorHandler) HandleExportLogs(w http.ResponseWriter, r *http.Request) {
	setAttachment(w, "text/csv", export.Filename("ocpp-logs", "csv", h.now()))
	if err := export.WriteLogsCSV(w, h.monitor.Snapshot().Records); err != nil {
		slog.Warn("export logs", "error", err)
	}
}

func (h *MonitorHandler) HandleExportOverstay(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	records := overstay.Filter(h.monitor.OverstayRecords(), criteria)
	setAttachment(w, "text/csv", export.Filename("overstay-records", "csv", h.now()))
	if err := export.WriteOverstayCSV(w, records); err != nil {
		slog.Warn("export overstay", "error", err)
	}
}

func (h *MonitorHandler) report() export.Report {
	return export.NewReport(h.monitor.Snapshot(), h.monitor.OverstayRecords(), h.now())
}

func (h *MonitorHandler) HandleExportReport(w http.ResponseWriter, r *http.Request) {
	rep := h.report()
	setAttachment(w, "application/json", export.Filename("ocpp-report", "json", rep.Timestamp))
	if err := rep.WriteJSON(w); err != nil {
		slog.Warn("export report", "error", err)
	}
}

func (h *MonitorHandler) HandleArchiveReport(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		writeError(w, http.StatusServiceUnavailable, "report archiving is not configured")
		return
	}
	key, err := h.archiver.Archive(r.Context(), h.report())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key})
}

func setAttachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}

func parseDate(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, errors.New(name + " must be a YYYY-MM-DD date")
	}
	return &t, nil
}

func parseCriteria(r *http.Request) (overstay.Criteria, error) {
	from, err := parseDate(r, "from")
	if err != nil {
		return overstay.Criteria{}, err
	}
	to, err := parseDate(r, "to")
	if err != nil {
		return overstay.Criteria{}, err
	}
	mode, err := overstay.ParseMode(r.URL.Query().Get("overstay"))
	if err != nil {
		return overstay.Criteria{}, err
	}
	return overstay.Criteria{
		FromDate: from,
		ToDate:   to,
		Station:  r.URL.Query().Get("station"),
		Mode:     mode,
	}, nil
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
