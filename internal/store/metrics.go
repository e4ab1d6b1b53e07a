package store

import (
	"codeberg.org/mutker/hoststate/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK    = "ok"
	resultMiss  = "miss"
	resultError = "error"
)

type metrics struct {
	operations *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hoststate",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Store operations by operation and result.",
		}, []string{"operation", "result"}),
	}

	if reg == nil {
		return m
	}

	if err := reg.Register(m.operations); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				m.operations = existing
			}
		}
	}

	return m
}

func (m *metrics) observe(operation, result string) {
	m.operations.WithLabelValues(operation, result).Inc()
}
