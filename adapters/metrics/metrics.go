// Package metrics provides Prometheus metrics collection for syncgate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for the engine.
type Collector struct {
	// Write evaluation metrics
	WritesTotal *prometheus.CounterVec

	// Catalogue metrics
	CatalogReloads      prometheus.Counter
	CatalogReloadErrors prometheus.Counter
}

// New creates a collector registered against the default registerer.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector registered against the given
// registerer. Tests pass a fresh registry to avoid duplicate registration.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		WritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "syncgate",
				Name:      "writes_total",
				Help:      "Total number of document writes evaluated",
			},
			[]string{"doc_type", "operation", "outcome"},
		),
		CatalogReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "syncgate",
				Name:      "catalog_reloads_total",
				Help:      "Total number of successful catalogue reloads",
			},
		),
		CatalogReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "syncgate",
				Name:      "catalog_reload_errors_total",
				Help:      "Total number of failed catalogue reloads",
			},
		),
	}
}

// RecordWrite counts one evaluated write. Implements engine.Recorder.
func (c *Collector) RecordWrite(documentType, operation, outcome string) {
	if documentType == "" {
		documentType = "unknown"
	}
	c.WritesTotal.WithLabelValues(documentType, operation, outcome).Inc()
}

// RecordReload counts one catalogue reload attempt.
func (c *Collector) RecordReload(err error) {
	if err != nil {
		c.CatalogReloadErrors.Inc()
		return
	}
	c.CatalogReloads.Inc()
}
