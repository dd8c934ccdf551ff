package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters for selection safety signals and changes.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Scan windows shrunk to the per-axis cap
	ScansClamped *prometheus.CounterVec

	// Scans refused because the cell count exceeded the hard cap
	ScansAborted *prometheus.CounterVec

	// Flood fills stopped at the voxel ceiling
	FloodFillsTruncated prometheus.Counter

	// Change notifications by change type
	SelectionChanges *prometheus.CounterVec

	// Cells visited by scans and fills
	CellsVisited *prometheus.CounterVec
}

// New creates and registers all selection metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ScansClamped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxsel_scans_clamped_total",
				Help: "Selection scans whose per-axis range was shrunk to the cap",
			},
			[]string{"selector"},
		),
		ScansAborted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxsel_scans_aborted_total",
				Help: "Selection scans refused because the cell count exceeded the hard cap",
			},
			[]string{"selector"},
		),
		FloodFillsTruncated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "voxsel_flood_fills_truncated_total",
				Help: "Flood fills that stopped at the configured voxel ceiling",
			},
		),
		SelectionChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxsel_selection_changes_total",
				Help: "Selection change notifications by change type",
			},
			[]string{"change_type"},
		),
		CellsVisited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxsel_cells_visited_total",
				Help: "Candidate cells tested by selectors",
			},
			[]string{"selector"},
		),
	}

	reg.MustRegister(
		m.ScansClamped,
		m.ScansAborted,
		m.FloodFillsTruncated,
		m.SelectionChanges,
		m.CellsVisited,
	)

	return m
}

// ScanClamped records a clamped scan for selector.
func (m *Metrics) ScanClamped(selector string) {
	if m == nil {
		return
	}
	m.ScansClamped.WithLabelValues(selector).Inc()
}

// ScanAborted records an aborted scan for selector.
func (m *Metrics) ScanAborted(selector string) {
	if m == nil {
		return
	}
	m.ScansAborted.WithLabelValues(selector).Inc()
}

// FloodFillTruncated records a fill that hit the voxel ceiling.
func (m *Metrics) FloodFillTruncated() {
	if m == nil {
		return
	}
	m.FloodFillsTruncated.Inc()
}

// SelectionChanged records one change notification.
func (m *Metrics) SelectionChanged(changeType string) {
	if m == nil {
		return
	}
	m.SelectionChanges.WithLabelValues(changeType).Inc()
}

// Visited adds n tested cells for selector.
func (m *Metrics) Visited(selector string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CellsVisited.WithLabelValues(selector).Add(float64(n))
}

// Handler serves the metrics gathered by reg in the Prometheus text or
// OpenMetrics format.
func Handler(reg *prometheus.Registry, log *slog.Logger) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelError),
		Registry:          reg,
		EnableOpenMetrics: true,
	})
}
