package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nikolag/summit/internal/storage"
)

// Metrics holds all Prometheus metrics for the server
type Metrics struct {
	participantsTotal prometheus.Gauge
	eventsTotal       prometheus.Gauge
	countriesTotal    prometheus.Gauge
	importsTotal      prometheus.Counter
	importRowErrors   prometheus.Counter
	workbookBytes     prometheus.Counter
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	return &Metrics{
		participantsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "summit_participants_total",
			Help: "Total number of participant records",
		}),
		eventsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "summit_events_total",
			Help: "Total number of events",
		}),
		countriesTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "summit_countries_total",
			Help: "Total number of catalog countries",
		}),
		importsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "summit_imports_total",
			Help: "Total number of workbook import runs",
		}),
		importRowErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "summit_import_row_errors_total",
			Help: "Total number of rejected import rows",
		}),
		workbookBytes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "summit_workbook_bytes_total",
			Help: "Total bytes of archived import workbooks",
		}),
	}
}

func (m *Metrics) setCounts(c storage.Counts) {
	m.participantsTotal.Set(float64(c.Participants))
	m.eventsTotal.Set(float64(c.Events))
	m.countriesTotal.Set(float64(c.Countries))
}
