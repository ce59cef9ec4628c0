package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the scheduling
// engine. All methods are nil-safe so instrumentation can be disabled by
// simply not constructing one.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	generationRuns  *prometheus.CounterVec
	placedCourses   prometheus.Counter
	unplacedCourses prometheus.Counter
	conflictsFound  *prometheus.CounterVec
	publishTotal    prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers the engine's Prometheus collectors.
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

	generationRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generation_runs_total",
		Help: "Total timetable generation runs by outcome",
	}, []string{"outcome"})

	placedCourses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_courses_placed_total",
		Help: "Courses placed by the generator",
	})

	unplacedCourses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_courses_unplaced_total",
		Help: "Courses the generator could not place",
	})

	conflictsFound := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_conflicts_recorded_total",
		Help: "Conflicts recorded by detection runs",
	}, []string{"type"})

	publishTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_publishes_total",
		Help: "Successful timetable publishes",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, generationRuns, placedCourses, unplacedCourses, conflictsFound, publishTotal, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		generationRuns:  generationRuns,
		placedCourses:   placedCourses,
		unplacedCourses: unplacedCourses,
		conflictsFound:  conflictsFound,
		publishTotal:    publishTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveGeneration records the outcome of a generation run.
func (m *MetricsService) ObserveGeneration(placed, unplaced int, failed bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.generationRuns.WithLabelValues(outcome).Inc()
	m.placedCourses.Add(float64(placed))
	m.unplacedCourses.Add(float64(unplaced))
}

// ObserveConflicts records how many conflicts a detection run stored.
func (m *MetricsService) ObserveConflicts(conflictType string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.conflictsFound.WithLabelValues(conflictType).Add(float64(count))
}

// ObservePublish counts a successful publish.
func (m *MetricsService) ObservePublish() {
	if m == nil {
		return
	}
	m.publishTotal.Inc()
}

// RecordCacheOperation counts a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
