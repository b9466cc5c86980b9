package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	uploadFilesTotal       *prometheus.CounterVec
	chainRunsTotal         *prometheus.CounterVec
	chainDuration          *prometheus.HistogramVec
	chainTags              *prometheus.HistogramVec
	classificationDegraded *prometheus.CounterVec
	generationFailedTotal  *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pt",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pt",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pt",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	uploadFilesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pt",
			Subsystem: "upload",
			Name:      "files_total",
			Help:      "Total uploaded files by validation verdict.",
		},
		[]string{"service", "verdict"},
	)
	chainRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pt",
			Subsystem: "chain",
			Name:      "runs_total",
			Help:      "Total completed chain runs by outcome.",
		},
		[]string{"service", "outcome"},
	)
	chainDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pt",
			Subsystem: "chain",
			Name:      "duration_seconds",
			Help:      "Chain run duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	chainTags := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pt",
			Subsystem: "chain",
			Name:      "tags_per_run",
			Help:      "Distribution of unioned tags per chain run.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	classificationDegraded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pt",
			Subsystem: "vision",
			Name:      "degraded_total",
			Help:      "Total classifier calls that substituted a fallback value.",
		},
		[]string{"service", "kind"},
	)
	generationFailedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pt",
			Subsystem: "llm",
			Name:      "generation_failed_total",
			Help:      "Total plan generations archived as failed.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		uploadFilesTotal,
		chainRunsTotal,
		chainDuration,
		chainTags,
		classificationDegraded,
		generationFailedTotal,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		uploadFilesTotal:       uploadFilesTotal,
		chainRunsTotal:         chainRunsTotal,
		chainDuration:          chainDuration,
		chainTags:              chainTags,
		classificationDegraded: classificationDegraded,
		generationFailedTotal:  generationFailedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// TrackRequest bumps the in-flight gauge and returns the matching
// decrement for the caller to defer.
func (m *HTTPServerMetrics) TrackRequest() func() {
	m.requestInFlight.Inc()
	return m.requestInFlight.Dec
}

// ObserveRequest records one finished request. The raw path is collapsed
// to its route shape so session ids do not explode label cardinality.
func (m *HTTPServerMetrics) ObserveRequest(service, method, rawPath string, status int, elapsed time.Duration) {
	path := normalizePath(rawPath)
	m.requestTotal.WithLabelValues(service, method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(service, method, path).Observe(elapsed.Seconds())
}

// normalizePath collapses session ids so path cardinality stays bounded.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/v1/sessions/") {
		return path
	}
	rest := strings.TrimPrefix(path, "/v1/sessions/")
	if rest == "" {
		return path
	}
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) == 1 {
		return "/v1/sessions/{session_id}"
	}
	return "/v1/sessions/{session_id}/" + parts[1]
}

func (m *HTTPServerMetrics) RecordUpload(service string, accepted, rejected int) {
	if accepted > 0 {
		m.uploadFilesTotal.WithLabelValues(service, "accepted").Add(float64(accepted))
	}
	if rejected > 0 {
		m.uploadFilesTotal.WithLabelValues(service, "rejected").Add(float64(rejected))
	}
}

func (m *HTTPServerMetrics) RecordChainRun(service, outcome string, tagCount int, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.chainRunsTotal.WithLabelValues(service, outcome).Inc()
	m.chainDuration.WithLabelValues(service).Observe(duration.Seconds())
	m.chainTags.WithLabelValues(service).Observe(float64(tagCount))
}

func (m *HTTPServerMetrics) RecordClassificationDegraded(service, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.classificationDegraded.WithLabelValues(service, kind).Inc()
}

func (m *HTTPServerMetrics) RecordGenerationFailed(service string) {
	m.generationFailedTotal.WithLabelValues(service).Inc()
}
