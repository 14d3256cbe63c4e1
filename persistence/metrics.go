package persistence

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "albumstore"

type metrics struct {
	operations    *prometheus.CounterVec
	statements    *prometheus.CounterVec
	flushDuration prometheus.Histogram
	openSessions  prometheus.Gauge
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "session_operations_total",
			Help:      "Entity operations performed through sessions.",
		}, []string{"operation", "entity"}),
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "statements_total",
			Help:      "SQL statements sent to the database, by kind.",
		}, []string{"kind"}),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "flush_duration_seconds",
			Help:      "Time spent writing pending changes.",
			Buckets:   prometheus.DefBuckets,
		}),
		openSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "open_sessions",
			Help:      "Sessions currently open.",
		}),
	}

	var err error
	m.operations, err = register(r, m.operations)
	if err != nil {
		return nil, err
	}
	m.statements, err = register(r, m.statements)
	if err != nil {
		return nil, err
	}
	m.flushDuration, err = register(r, m.flushDuration)
	if err != nil {
		return nil, err
	}
	m.openSessions, err = register(r, m.openSessions)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c, reusing an identical collector registered by an earlier factory.
func register[C prometheus.Collector](r prometheus.Registerer, c C) (C, error) {
	if err := r.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
