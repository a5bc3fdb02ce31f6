package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	callbacks *prometheus.CounterVec
	links     *prometheus.CounterVec
}

// NewMetrics registers collectors on a fresh registry.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Processed HTTP requests.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_callbacks_total",
			Help: "OAuth callbacks by provider and result.",
		}, []string{"provider", "result"}),
		links: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_resolutions_total",
			Help: "Resolved callbacks by provider and outcome: linked, signed_in or registered.",
		}, []string{"provider", "outcome"}),
	}

	cs := []prometheus.Collector{
		m.requests, m.latency, m.callbacks, m.links,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	var errs []error
	for _, c := range cs {
		errs = append(errs, m.registry.Register(c))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeRequest(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) callback(provider, result string) {
	m.callbacks.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) resolution(provider, outcome string) {
	m.links.WithLabelValues(provider, outcome).Inc()
}
