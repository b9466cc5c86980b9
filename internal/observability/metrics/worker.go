package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	chainTotal    *prometheus.CounterVec
	chainDuration *prometheus.HistogramVec
	chainInFlight prometheus.Gauge
	queueLag      *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	chainTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pt",
			Subsystem: "worker",
			Name:      "chain_process_total",
			Help:      "Total processed chain requests by status.",
		},
		[]string{"service", "status"},
	)
	chainDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pt",
			Subsystem: "worker",
			Name:      "chain_process_duration_seconds",
			Help:      "Chain processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	chainInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pt",
			Subsystem: "worker",
			Name:      "chain_process_in_flight",
			Help:      "Number of in-flight chain runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pt",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between chain request enqueue and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(chainTotal, chainDuration, chainInFlight, queueLag)

	return &WorkerMetrics{
		registry:      registry,
		chainTotal:    chainTotal,
		chainDuration: chainDuration,
		chainInFlight: chainInFlight,
		queueLag:      queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartChain() {
	m.chainInFlight.Inc()
}

func (m *WorkerMetrics) FinishChain(service string, duration time.Duration, err error) {
	m.chainInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.chainTotal.WithLabelValues(service, status).Inc()
	m.chainDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
