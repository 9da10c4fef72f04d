// Package metrics holds the collectors shared by every resource of a model.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "heartbeat_module"

// HeartbeatTicks counts counter-loop ticks per resource on reg.
func HeartbeatTicks(reg prometheus.Registerer) *prometheus.CounterVec {
	return counterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "heartbeat_ticks_total",
		Help:      "Ticks completed by heartbeat counter loops.",
	}, "resource")
}

// VisionCaptures counts capture-all requests per resource and result.
func VisionCaptures(reg prometheus.Registerer) *prometheus.CounterVec {
	return counterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vision_captures_total",
		Help:      "Capture-all requests served by vision services.",
	}, "resource", "result")
}

// ResourcesRunning reports how many resources the host is running per API.
func ResourcesRunning(reg prometheus.Registerer) *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "resources_running",
		Help:      "Resources currently running in the host.",
	}, []string{"api"})
	return register(reg, g).(*prometheus.GaugeVec)
}

func counterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels ...string) *prometheus.CounterVec {
	return register(reg, prometheus.NewCounterVec(opts, labels)).(*prometheus.CounterVec)
}

// register returns the collector already registered under the same descriptor, if any,
// so that several instances of one model share a vector.
func register(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}
