package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rmsconsole/rmsconsole/internal/config"
)

// Manager defines the interface for metrics management
type Manager interface {
	// HTTP Metrics
	RecordHTTPRequest(method, path, status string, duration time.Duration)

	// Panel Metrics
	RecordSettingUpdate(key string)
	RecordReasonOperation(operation string, success bool)
	RecordNotification(variant string)
	SetWorkspaces(n int)

	// Export
	GetMetricsHandler() http.Handler

	// HTTP Middleware
	Middleware() func(http.Handler) http.Handler
}

// metricsManager implements the Manager interface using Prometheus
type metricsManager struct {
	registry *prometheus.Registry

	// HTTP Metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Panel Metrics
	settingUpdatesTotal   *prometheus.CounterVec
	reasonOperationsTotal *prometheus.CounterVec
	notificationsTotal    *prometheus.CounterVec
	workspaces            prometheus.Gauge
}

const namespace = "rmsconsole"

// NewManager creates a new metrics manager. A disabled configuration
// yields a manager that records nothing.
func NewManager(cfg config.MetricsConfig) Manager {
	if !cfg.Enable {
		return &noopManager{}
	}

	m := &metricsManager{registry: prometheus.NewRegistry()}
	m.initializeMetrics()
	return m
}

// initializeMetrics sets up all Prometheus metrics
func (m *metricsManager) initializeMetrics() {
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.settingUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settings",
			Name:      "updates_total",
			Help:      "Total setting changes by key",
		},
		[]string{"key"},
	)

	m.reasonOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reason",
			Name:      "operations_total",
			Help:      "Total reason catalog operations",
		},
		[]string{"operation", "result"},
	)

	m.notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total notifications emitted by variant",
		},
		[]string{"variant"},
	)

	m.workspaces = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workspaces",
			Help:      "Number of live console workspaces",
		},
	)

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.settingUpdatesTotal,
		m.reasonOperationsTotal,
		m.notificationsTotal,
		m.workspaces,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func (m *metricsManager) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *metricsManager) RecordSettingUpdate(key string) {
	m.settingUpdatesTotal.WithLabelValues(key).Inc()
}

func (m *metricsManager) RecordReasonOperation(operation string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.reasonOperationsTotal.WithLabelValues(operation, result).Inc()
}

func (m *metricsManager) RecordNotification(variant string) {
	m.notificationsTotal.WithLabelValues(variant).Inc()
}

func (m *metricsManager) SetWorkspaces(n int) {
	m.workspaces.Set(float64(n))
}

func (m *metricsManager) GetMetricsHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records every request. Paths are labelled with the matched
// route template so ids do not explode label cardinality.
func (m *metricsManager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriterWrapper{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			m.RecordHTTPRequest(r.Method, routePath(r), strconv.Itoa(wrapped.statusCode), time.Since(start))
		})
	}
}

func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Flush keeps server-sent event streams working through the wrapper
func (w *responseWriterWrapper) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// noopManager is a no-op implementation when metrics are disabled
type noopManager struct{}

func (n *noopManager) RecordHTTPRequest(method, path, status string, duration time.Duration) {}
func (n *noopManager) RecordSettingUpdate(key string)                                        {}
func (n *noopManager) RecordReasonOperation(operation string, success bool)                  {}
func (n *noopManager) RecordNotification(variant string)                                     {}
func (n *noopManager) SetWorkspaces(count int)                                               {}
func (n *noopManager) GetMetricsHandler() http.Handler                                       { return http.NotFoundHandler() }
func (n *noopManager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return next }
}
