package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"socialhub-backend/internal/domains/publishing/job"
)

const namespace = "socialhub"

// PublishingMetrics records publish outcomes, recovery sweeps and HTTP traffic.
type PublishingMetrics struct {
	gatherer prometheus.Gatherer

	publishTotal    *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec

	sweepsTotal    prometheus.Counter
	sweepItems     *prometheus.CounterVec
	sweepDuration  prometheus.Histogram
	lastSweepDue   prometheus.Gauge

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewPublishingMetrics registers every collector on reg. Tests pass a fresh
// prometheus.NewRegistry() to stay independent of the default registry.
func NewPublishingMetrics(reg *prometheus.Registry) *PublishingMetrics {
	m := &PublishingMetrics{
		gatherer: reg,
		publishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_attempts_total",
			Help:      "Publish attempts by platform and outcome",
		}, []string{"platform", "outcome"}),
		publishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "Time spent in the platform adapter per publish",
			Buckets:   prometheus.DefBuckets,
		}, []string{"platform"}),
		sweepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovery_sweeps_total",
			Help:      "Completed recovery loop sweeps",
		}),
		sweepItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovery_items_total",
			Help:      "Scheduled content handled by the recovery loop, by result",
		}, []string{"result"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recovery_sweep_duration_seconds",
			Help:      "Duration of one recovery sweep",
			Buckets:   prometheus.DefBuckets,
		}),
		lastSweepDue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recovery_last_sweep_due",
			Help:      "Due items seen by the most recent sweep",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}

	reg.MustRegister(
		m.publishTotal,
		m.publishDuration,
		m.sweepsTotal,
		m.sweepItems,
		m.sweepDuration,
		m.lastSweepDue,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	)
	return m
}

func (m *PublishingMetrics) ObservePublish(platform, outcome string, duration time.Duration) {
	m.publishTotal.WithLabelValues(platform, outcome).Inc()
	m.publishDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

func (m *PublishingMetrics) ObserveSweep(stats job.SweepStats, duration time.Duration) {
	m.sweepsTotal.Inc()
	m.sweepDuration.Observe(duration.Seconds())
	m.lastSweepDue.Set(float64(stats.Due))

	m.sweepItems.WithLabelValues("published").Add(float64(stats.Published))
	m.sweepItems.WithLabelValues("failed").Add(float64(stats.Failed))
	m.sweepItems.WithLabelValues("deferred").Add(float64(stats.Deferred))
	m.sweepItems.WithLabelValues("exhausted").Add(float64(stats.Exhausted))
	m.sweepItems.WithLabelValues("pruned").Add(float64(stats.Pruned))
}

// Middleware collects HTTP metrics per route template.
func (m *PublishingMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *PublishingMetrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
