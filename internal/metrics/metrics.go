// Package metrics counts what a run fetched, resolved, dropped and wrote.
// Counters live in a per-run registry and can be written in the
// node_exporter textfile format after the run finishes.
package metrics

import (
	"github.com/nishad/geopool/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "geopool"

// Metrics holds the run counters
type Metrics struct {
	registry *prometheus.Registry

	StudiesFetched    prometheus.Counter
	StudiesClassified *prometheus.CounterVec // label: bulk | singlecell
	Resolutions       *prometheus.CounterVec // outcome
	StudiesExcluded   prometheus.Counter
	RowsDropped       *prometheus.CounterVec // reason
	RowsWritten       prometheus.Counter
}

// New creates the counters and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		StudiesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "studies_fetched_total",
			Help:      "Study records read from the upstream listing.",
		}),
		StudiesClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "studies_classified_total",
			Help:      "Study records by assigned label.",
		}, []string{"label"}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Cross-reference lookups by outcome.",
		}, []string{"outcome"}),
		StudiesExcluded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "studies_excluded_total",
			Help:      "Study records dropped because they are already tracked.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Mapping rows removed by the filter, by reason.",
		}, []string{"reason"}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Mapping rows written to the output file.",
		}),
	}

	m.registry.MustRegister(
		m.StudiesFetched,
		m.StudiesClassified,
		m.Resolutions,
		m.StudiesExcluded,
		m.RowsDropped,
		m.RowsWritten,
	)
	return m
}

// Registry exposes the registry for gathering
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every counter to path in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.E(errors.Op("metrics.WriteTextfile"), errors.KindIO, err)
	}
	return nil
}
