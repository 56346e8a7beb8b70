package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Known plant states, used to reset the status gauge.
var plantStates = []string{"ok", "problem", "unavailable", "unknown"}

// Collector tracks how sensor updates flow through the monitor.
type Collector struct {
	updates  *prometheus.CounterVec
	unrouted prometheus.Counter
	status   *prometheus.GaugeVec
}

// New registers the plant-monitor metrics with reg.
func New(reg prometheus.Registerer) *Collector {
	const namespace = "easyplant"

	return &Collector{
		updates: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sensor_updates_total",
				Help:      "Sensor updates handled per plant and result",
			},
			[]string{"plant", "result"},
		),
		unrouted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unrouted_updates_total",
				Help:      "Sensor updates no plant claimed",
			},
		),
		status: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "plant_status",
				Help:      "Current plant status (1 for the active state)",
			},
			[]string{"plant", "state"},
		),
	}
}

// ObserveUpdate counts one handled update. result is "ok" or "error".
func (c *Collector) ObserveUpdate(plant, result string) {
	c.updates.WithLabelValues(plant, result).Inc()
}

// ObserveUnrouted counts one update no plant wanted.
func (c *Collector) ObserveUnrouted() {
	c.unrouted.Inc()
}

// SetStatus records the plant's current state on the status gauge.
func (c *Collector) SetStatus(plant, state string) {
	for _, s := range plantStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		c.status.WithLabelValues(plant, s).Set(v)
	}
}
