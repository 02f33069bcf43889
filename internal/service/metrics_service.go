package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-appointments-api/internal/dto"
)

// MetricsService encapsulates Prometheus instrumentation for the scheduling API.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	rescheduleOutcomes *prometheus.CounterVec
	suggestions        prometheus.Histogram
	storeDuration      *prometheus.HistogramVec
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheHitRatio      prometheus.Gauge
	snapshotsPublished *prometheus.CounterVec
	streamSubscribers  prometheus.Gauge

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the collectors on a private registry.
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

	rescheduleOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reschedule_requests_total",
		Help: "Reschedule requests by outcome",
	}, []string{"outcome"})

	suggestions := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reschedule_suggestions",
		Help:    "Number of alternative times offered per rejected request",
		Buckets: []float64{0, 1, 2, 3, 4, 6, 8, 12},
	})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "appointment_store_duration_seconds",
		Help:    "Duration of appointment store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	snapshotsPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "appointment_snapshots_published_total",
		Help: "Appointment snapshots published to live dashboards",
	}, []string{"result"})

	streamSubscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "appointment_stream_subscribers",
		Help: "Open live-update subscriptions",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, rescheduleOutcomes, suggestions, storeDuration,
		cacheHits, cacheMisses, cacheHitRatio, snapshotsPublished, streamSubscribers, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		rescheduleOutcomes: rescheduleOutcomes,
		suggestions:        suggestions,
		storeDuration:      storeDuration,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		cacheHitRatio:      cacheHitRatio,
		snapshotsPublished: snapshotsPublished,
		streamSubscribers:  streamSubscribers,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// ObserveReschedule counts a resolved request and the number of suggestions it carried.
func (m *MetricsService) ObserveReschedule(result *dto.RescheduleResult) {
	if m == nil || result == nil {
		return
	}
	m.rescheduleOutcomes.WithLabelValues(string(result.Outcome)).Inc()
	if !result.Accepted() {
		m.suggestions.Observe(float64(len(result.Alternatives)))
	}
}

// ObserveRescheduleError counts a request that ended in an error response.
func (m *MetricsService) ObserveRescheduleError(code string) {
	if m == nil {
		return
	}
	m.rescheduleOutcomes.WithLabelValues("error_" + code).Inc()
}

// ObserveStore records the timing of an appointment store operation.
func (m *MetricsService) ObserveStore(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheOperation records cache hit/miss metrics and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// RecordSnapshotPublish counts snapshot publications by result.
func (m *MetricsService) RecordSnapshotPublish(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.snapshotsPublished.WithLabelValues(result).Inc()
}

// StreamSubscribed adjusts the open subscription gauge by delta.
func (m *MetricsService) StreamSubscribed(delta int) {
	if m == nil {
		return
	}
	m.streamSubscribers.Add(float64(delta))
}
