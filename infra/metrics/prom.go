// Package metrics provides the production solve-event sinks: Prometheus
// counters/histograms and InfluxDB line-protocol writes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/karimcy/SEMDR/core/metrics"
)

// PromSink records solve events in Prometheus metrics.
type PromSink struct {
	solves   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPromSink registers solve metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "semdr_scenario_solves_total",
		Help: "Total number of scenario solves by status",
	}, []string{"study", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "semdr_solve_duration_seconds",
		Help:    "Wall-clock time of one scenario solve",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"study"})

	if err := reg.Register(solves); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			solves = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	return &PromSink{solves: solves, duration: duration}, nil
}

func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) {
	s.solves.WithLabelValues(ev.Study, ev.Status).Inc()
	s.duration.WithLabelValues(ev.Study).Observe(ev.Seconds)
}

func (s *PromSink) Close() error { return nil }
