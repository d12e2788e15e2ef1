package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the
// workflow engine. A nil receiver is a no-op so tests can skip the
// metrics wiring.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	assignmentsTotal *prometheus.CounterVec
	exportsTotal     *prometheus.CounterVec
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	overdueStudies   prometheus.Gauge
}

// NewMetricsService registers the core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	transitionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_transitions_total",
		Help: "Workflow status transitions by source and target status",
	}, []string{"from", "to"})

	assignmentsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "study_assignments_total",
		Help: "Study assignment events by kind",
	}, []string{"kind"})

	exportsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_exports_total",
		Help: "Report exports by format",
	}, []string{"format"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	overdueStudies := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "overdue_studies",
		Help: "Studies past the reporting deadline at last refresh",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, transitionsTotal, assignmentsTotal, exportsTotal, cacheHits, cacheMisses, overdueStudies, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		transitionsTotal: transitionsTotal,
		assignmentsTotal: assignmentsTotal,
		exportsTotal:     exportsTotal,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
		overdueStudies:   overdueStudies,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request latency and count.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// Transition counts one workflow status change.
func (m *MetricsService) Transition(from, to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

// Assignment counts an assignment event ("assign", "reassign" or
// "unassign").
func (m *MetricsService) Assignment(kind string) {
	if m == nil {
		return
	}
	m.assignmentsTotal.WithLabelValues(kind).Inc()
}

// Export counts a report export by format.
func (m *MetricsService) Export(format string) {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(format).Inc()
}

func (m *MetricsService) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *MetricsService) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// SetOverdueStudies publishes the current overdue backlog size.
func (m *MetricsService) SetOverdueStudies(n int) {
	if m == nil {
		return
	}
	m.overdueStudies.Set(float64(n))
}
