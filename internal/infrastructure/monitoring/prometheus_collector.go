package monitoring

import (
	"strconv"
	"time"

	"proctorhub/pkg/circuitbreaker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "proctorhub"

type PrometheusCollector struct {
	reg prometheus.Registerer

	roomsCreatedTotal prometheus.Counter
	roomsDeletedTotal prometheus.Counter
	admissionsTotal   *prometheus.CounterVec

	logEntriesAppended prometheus.Counter
	logEntriesDropped  prometheus.Counter
	logSubscribers     prometheus.Gauge

	objectStoreOps *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewPrometheusCollector registers the service metrics on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)

	return &PrometheusCollector{
		reg: reg,

		roomsCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_created_total",
			Help:      "Total number of exam rooms created",
		}),

		roomsDeletedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_deleted_total",
			Help:      "Total number of exam rooms deleted",
		}),

		admissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admissions_total",
			Help:      "Participant validation attempts by outcome",
		}, []string{"outcome"}),

		logEntriesAppended: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_entries_appended_total",
			Help:      "Total number of proctoring log entries recorded",
		}),

		logEntriesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_entries_dropped_total",
			Help:      "Log entries not delivered to a slow stream subscriber",
		}),

		logSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "log_subscribers",
			Help:      "Number of open log streams",
		}),

		objectStoreOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objectstore_operations_total",
			Help:      "Object store operations by store, operation and result",
		}, []string{"store", "operation", "result"}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),

		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
	}
}

func (p *PrometheusCollector) RecordRoomCreated() {
	p.roomsCreatedTotal.Inc()
}

func (p *PrometheusCollector) RecordRoomDeleted() {
	p.roomsDeletedTotal.Inc()
}

func (p *PrometheusCollector) RecordAdmission(outcome string) {
	p.admissionsTotal.WithLabelValues(outcome).Inc()
}

func (p *PrometheusCollector) RecordLogAppended() {
	p.logEntriesAppended.Inc()
}

func (p *PrometheusCollector) RecordLogDropped() {
	p.logEntriesDropped.Inc()
}

func (p *PrometheusCollector) SetLogSubscribers(n int) {
	p.logSubscribers.Set(float64(n))
}

func (p *PrometheusCollector) RecordObjectStoreOperation(store, operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.objectStoreOps.WithLabelValues(store, operation, result).Inc()
}

// ObserveDashboards exports the live observer count, read at scrape time.
func (p *PrometheusCollector) ObserveDashboards(count func() int) {
	promauto.With(p.reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dashboard_observers",
		Help:      "Number of connected dashboard websockets",
	}, func() float64 { return float64(count()) })
}

// ObserveCircuitBreaker exports a store's breaker state (0 closed, 1 open,
// 2 half-open), read at scrape time.
func (p *PrometheusCollector) ObserveCircuitBreaker(store string, stats func() circuitbreaker.Stats) {
	promauto.With(p.reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "objectstore_circuit_state",
		Help:        "Object store circuit breaker state: 0 closed, 1 open, 2 half-open",
		ConstLabels: prometheus.Labels{"store": store},
	}, func() float64 { return float64(stats().State) })
}

// GinMiddleware counts requests by matched route
func (p *PrometheusCollector) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		p.httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		p.httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
