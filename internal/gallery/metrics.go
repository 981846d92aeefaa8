package gallery

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the collectors recorded by Service.
type Metrics struct {
	Fetches *prometheus.CounterVec
	Matched prometheus.Histogram
}

// NewMetrics creates the gallery collectors and registers them with reg
// unless reg is nil. Collectors already registered are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "galleria",
			Subsystem: "gallery",
			Name:      "snapshot_fetches_total",
			Help:      "Snapshot loads by source kind and outcome (ok, error, cached).",
		}, []string{"source", "result"}),
		Matched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "galleria",
			Subsystem: "gallery",
			Name:      "query_matched_artworks",
			Help:      "Number of artworks matching each evaluated query.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	if reg == nil {
		return m, nil
	}
	if err := reg.Register(m.Fetches); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		m.Fetches = are.ExistingCollector.(*prometheus.CounterVec)
	}
	if err := reg.Register(m.Matched); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		m.Matched = are.ExistingCollector.(prometheus.Histogram)
	}
	return m, nil
}
