// Package metrics exposes the dimmer's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lightdimmer"

var (
	Cycles = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "loop",
		Name:      "cycles_total",
		Help:      "Control cycles executed",
	})

	CycleOverruns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "loop",
		Name:      "overruns_total",
		Help:      "Cycles that took longer than the loop interval",
	})

	Held = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "arbitration",
		Name:      "held",
		Help:      "1 while the output is held at an adopted color, 0 while tracking the pots",
	})

	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "arbitration",
		Name:      "transitions_total",
		Help:      "State transitions by target state and cause",
	}, []string{"to", "cause"})

	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "protocol",
		Name:      "commands_total",
		Help:      "Protocol actions by port and kind",
	}, []string{"port", "kind"})

	PatchSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "patch",
		Name:      "saves_total",
		Help:      "Patch saves by result",
	}, []string{"result"})

	PatchIndex = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "patch",
		Name:      "selected",
		Help:      "Selected patch slot",
	})

	Output = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "output",
		Name:      "level",
		Help:      "Current output level per channel (0-255)",
	}, []string{"channel"})

	OutputErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "output",
		Name:      "errors_total",
		Help:      "Failed writes to the strip or main channel",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
