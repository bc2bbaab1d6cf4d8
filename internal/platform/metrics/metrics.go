// Package metrics exposes Prometheus instrumentation for the trainer: word
// generation outcomes, selection tiers, answers and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vocab"

// Metrics owns a Prometheus registry and the trainer's collectors. It
// implements session.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	generationLatency *prometheus.HistogramVec
	advances          *prometheus.CounterVec
	answers           *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpLatency       *prometheus.HistogramVec
}

// New creates a registry with Go and process collectors plus the trainer
// metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// Labels: outcome (ok, duplicate, malformed, unavailable, error)
		generationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Word generation latency in seconds by outcome",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"outcome"}),

		// Labels: source (generated, duplicate_fallback, ..., no_word)
		advances: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "advances_total",
			Help:      "Word selections by the tier that produced them",
		}, []string{"source"}),

		answers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "answers_total",
			Help:      "Answer checks by result",
		}, []string{"result"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),

		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveGeneration records one generator call.
func (m *Metrics) ObserveGeneration(outcome string, d time.Duration) {
	m.generationLatency.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveAdvance records which tier selected the current word.
func (m *Metrics) ObserveAdvance(source string) {
	m.advances.WithLabelValues(source).Inc()
}

// ObserveAnswer records an answer check.
func (m *Metrics) ObserveAnswer(correct bool) {
	result := "incorrect"
	if correct {
		result = "correct"
	}
	m.answers.WithLabelValues(result).Inc()
}

// RegisterSessionGauge exposes the number of live sessions reported by fn.
func (m *Metrics) RegisterSessionGauge(fn func() int) {
	promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "live",
		Help:      "Sessions currently held in memory",
	}, func() float64 { return float64(fn()) })
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts requests and measures latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpLatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
