package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Workspace metrics
	WorkspacesOpen prometheus.Gauge
	CardChanges    *prometheus.CounterVec
	CardsOpen      prometheus.Gauge

	// Persistence metrics
	Saves          *prometheus.CounterVec
	SaveDuration   *prometheus.HistogramVec
	Pulls          *prometheus.CounterVec
	ImportSkipped  prometheus.Counter
	CatalogReloads prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	OpenWorkspaces    int64   `json:"open_workspaces"`
	ActiveConnections int64   `json:"active_connections"`
	CardChanges       int64   `json:"card_changes"`
	Saves             int64   `json:"saves"`
	SaveErrors        int64   `json:"save_errors"`
	TotalDuration     float64 `json:"total_duration"` // sum of all request durations
	RequestCount      int64   `json:"request_count"`  // count for averaging
}

// NewMetrics creates a collector backed by its own registry, so several
// instances can coexist in one process
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardspace_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cardspace_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cardspace_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cardspace_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Workspace metrics
		WorkspacesOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cardspace_workspaces_open",
				Help: "Number of open device workspaces",
			},
		),
		CardChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardspace_card_changes_total",
				Help: "Card store mutations by kind",
			},
			[]string{"kind"},
		),
		CardsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cardspace_cards_open",
				Help: "Number of cards across open workspaces",
			},
		),

		// Persistence metrics
		Saves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardspace_layout_saves_total",
				Help: "Layout record saves by result",
			},
			[]string{"result"},
		),
		SaveDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cardspace_layout_save_duration_seconds",
				Help:    "Layout record save duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"backend"},
		),
		Pulls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardspace_layout_pulls_total",
				Help: "Layout record pulls by result",
			},
			[]string{"result"},
		),
		ImportSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cardspace_import_skipped_entries_total",
				Help: "Malformed card entries skipped while applying a record",
			},
		),
		CatalogReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cardspace_catalog_reloads_total",
				Help: "Card type catalog reloads",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cardspace_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardspace_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cardspace_uptime_seconds",
				Help: "Server uptime in seconds",
			},
		),
	}

	return m
}

// Handler serves this collector's registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// UpdateUptime refreshes the uptime gauge; the server calls it on scrape
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordCardChange counts one store mutation
func (m *Metrics) RecordCardChange(kind string) {
	m.CardChanges.WithLabelValues(kind).Inc()
	m.mu.Lock()
	m.snapshot.CardChanges++
	m.mu.Unlock()
}

// AddCardsOpen moves the open card gauge by delta
func (m *Metrics) AddCardsOpen(delta int) {
	m.CardsOpen.Add(float64(delta))
}

// RecordSave records a layout save attempt
func (m *Metrics) RecordSave(backend string, duration time.Duration, err error) {
	m.SaveDuration.WithLabelValues(backend).Observe(duration.Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Saves.WithLabelValues(result).Inc()

	m.mu.Lock()
	m.snapshot.Saves++
	if err != nil {
		m.snapshot.SaveErrors++
	}
	m.mu.Unlock()
}

// RecordPull records a pull outcome: applied, noop, missing or error
func (m *Metrics) RecordPull(result string) {
	m.Pulls.WithLabelValues(result).Inc()
}

// AddImportSkipped counts skipped record entries
func (m *Metrics) AddImportSkipped(n int) {
	if n > 0 {
		m.ImportSkipped.Add(float64(n))
	}
}

// IncCatalogReloads counts a catalog reload
func (m *Metrics) IncCatalogReloads() {
	m.CatalogReloads.Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// SetWorkspacesOpen sets the number of open workspaces
func (m *Metrics) SetWorkspacesOpen(count int) {
	m.WorkspacesOpen.Set(float64(count))
	m.mu.Lock()
	m.snapshot.OpenWorkspaces = int64(count)
	m.mu.Unlock()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current JSON snapshot
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
