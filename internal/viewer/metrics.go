package viewer

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the viewer's Prometheus collectors on a private registry.
type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	lookups       *prometheus.CounterVec
	lookupLatency *prometheus.HistogramVec
	rateLimited   prometheus.Counter
	openConns     prometheus.Gauge
	companies     prometheus.Gauge
}

// NewMetrics creates and registers the viewer collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cosim_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cosim_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cosim_lookups_total",
			Help: "Similarity lookups by kind and outcome",
		}, []string{"kind", "status"}),
		lookupLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cosim_lookup_duration_seconds",
			Help:    "Latency of similarity lookups",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"kind"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cosim_http_rate_limited_total",
			Help: "Requests rejected by the per-client rate limit",
		}),
		openConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cosim_http_open_connections",
			Help: "Currently open client connections",
		}),
		companies: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cosim_companies",
			Help: "Company records in the loaded bundle",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.latency,
		m.lookups,
		m.lookupLatency,
		m.rateLimited,
		m.openConns,
		m.companies,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) observeRequest(route string, code int, d time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.latency.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) observeLookup(kind string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.lookups.WithLabelValues(kind, status).Inc()
	m.lookupLatency.WithLabelValues(kind).Observe(d.Seconds())
}

// countingListener tracks open connections in a gauge.
type countingListener struct {
	net.Listener
	count prometheus.Gauge
}

func (c *countingListener) Accept() (net.Conn, error) {
	conn, err := c.Listener.Accept()
	if err != nil {
		return nil, err
	}
	c.count.Inc()
	return &countingConn{Conn: conn, count: c.count}, nil
}

type countingConn struct {
	net.Conn
	count prometheus.Gauge
	once  sync.Once
}

func (c *countingConn) Close() error {
	err := c.Conn.Close()

	// Close may be called more than once on a connection.
	c.once.Do(func() {
		c.count.Dec()
	})

	return err
}
