package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons used as the "reason" label.
const (
	ReasonQueueFull = "queue_full"
	ReasonMaxWait   = "max_wait"
	ReasonCancelled = "cancelled"
)

// Metrics holds the Prometheus collectors for every provider queue.
type Metrics struct {
	QueueDepth   *prometheus.GaugeVec
	InFlight     *prometheus.GaugeVec
	Admitted     *prometheus.CounterVec
	Rejected     *prometheus.CounterVec
	WaitDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "promptinspector_ratelimit_queue_depth",
				Help: "Number of requests waiting for admission",
			},
			[]string{"provider"},
		),
		InFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "promptinspector_ratelimit_in_flight",
				Help: "Number of admitted requests not yet completed",
			},
			[]string{"provider"},
		),
		Admitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptinspector_ratelimit_admitted_total",
				Help: "Total number of admitted requests",
			},
			[]string{"provider"},
		),
		Rejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptinspector_ratelimit_rejected_total",
				Help: "Total number of requests that never got admitted",
			},
			[]string{"provider", "reason"},
		),
		WaitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "promptinspector_ratelimit_wait_seconds",
				Help:    "Time from enqueue to admission",
				Buckets: []float64{.001, .01, .05, .1, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider"},
		),
	}
}
