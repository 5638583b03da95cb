package middlewares

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vzahanych/weather-advisor/internal/recommend"
)

// Metrics owns a private Prometheus registry. Besides the HTTP middleware it
// serves as the aggregator's cache recorder and the provider clients'
// upstream observer.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	requestsInFlight  prometheus.Gauge
	cacheLookups      *prometheus.CounterVec
	upstreamCalls     *prometheus.CounterVec
	upstreamDuration  *prometheus.HistogramVec
	providerFallbacks *prometheus.CounterVec
	rateLimited       prometheus.Counter
	recommendations   *prometheus.CounterVec
	alerts            *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		requestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Provider response cache lookups by result",
		}, []string{"cache_type", "result"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Upstream API attempts by outcome",
		}, []string{"upstream", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Upstream API latency in seconds per attempt",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"upstream"}),
		providerFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_fallbacks_total",
			Help: "Times a weather provider failed and the next one was tried",
		}, []string{"provider", "category"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rate_limit_denied_total",
			Help: "Requests denied by the rate limiter",
		}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "Recommendation bundles produced per persona",
		}, []string{"persona"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendation_alerts_total",
			Help: "Alerts emitted per persona and severity",
		}, []string{"persona", "severity"}),
	}

	m.registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		m.requestsTotal, m.requestDuration, m.requestsInFlight,
		m.cacheLookups, m.upstreamCalls, m.upstreamDuration, m.providerFallbacks,
		m.rateLimited, m.recommendations, m.alerts,
	)
	return m
}

func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.requestsInFlight.Inc()

		c.Next()

		m.requestsInFlight.Dec()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Exposition serves the registry in the Prometheus text format.
func (m *Metrics) Exposition() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordCacheHit(_ context.Context, cacheType string) {
	m.cacheLookups.WithLabelValues(cacheType, "hit").Inc()
}

func (m *Metrics) RecordCacheMiss(_ context.Context, cacheType string) {
	m.cacheLookups.WithLabelValues(cacheType, "miss").Inc()
}

func (m *Metrics) RecordProviderFallback(_ context.Context, provider, category string) {
	m.providerFallbacks.WithLabelValues(provider, category).Inc()
}

func (m *Metrics) ObserveUpstream(name, outcome string, d time.Duration) {
	m.upstreamCalls.WithLabelValues(name, outcome).Inc()
	m.upstreamDuration.WithLabelValues(name).Observe(d.Seconds())
}

func (m *Metrics) RecordRateLimited() {
	m.rateLimited.Inc()
}

func (m *Metrics) RecordRecommendation(persona string, alerts []recommend.Alert) {
	m.recommendations.WithLabelValues(persona).Inc()
	for _, a := range alerts {
		m.alerts.WithLabelValues(persona, string(a.Severity)).Inc()
	}
}
