package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joshdurbin/shortlinks/internal/domain"
)

const namespace = "shortlinks"

// Redirect outcomes recorded by RedirectResolved
const (
	OutcomeSuccess     = "success"
	OutcomeNotFound    = "not_found"
	OutcomeForbidden   = "forbidden"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Metrics holds the collectors for the link lifecycle, registered on a private registry
type Metrics struct {
	registry *prometheus.Registry

	linksCreated         prometheus.Counter
	redirects            *prometheus.CounterVec
	reaperProcessed      prometheus.Counter
	reaperFailures       prometheus.Counter
	notificationsCreated *prometheus.CounterVec
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		linksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_created_total",
			Help:      "Number of short links created.",
		}),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Resolve attempts by outcome.",
		}, []string{"outcome"}),
		reaperProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaper_links_processed_total",
			Help:      "Expired links notified and deleted by the reaper.",
		}),
		reaperFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaper_failures_total",
			Help:      "Expired links the reaper failed to process.",
		}),
		notificationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Notifications persisted by type.",
		}, []string{"type"}),
	}

	m.registry.MustRegister(
		m.linksCreated,
		m.redirects,
		m.reaperProcessed,
		m.reaperFailures,
		m.notificationsCreated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the private registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// LinkCreated counts one created link. All recording methods accept a nil receiver.
func (m *Metrics) LinkCreated() {
	if m == nil {
		return
	}
	m.linksCreated.Inc()
}

// RedirectResolved counts one resolve attempt with the given outcome
func (m *Metrics) RedirectResolved(outcome string) {
	if m == nil {
		return
	}
	m.redirects.WithLabelValues(outcome).Inc()
}

// ReaperProcessed counts links handled by one sweep
func (m *Metrics) ReaperProcessed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reaperProcessed.Add(float64(n))
}

// ReaperFailed counts one link the reaper could not process
func (m *Metrics) ReaperFailed() {
	if m == nil {
		return
	}
	m.reaperFailures.Inc()
}

// NotificationCreated counts one persisted notification
func (m *Metrics) NotificationCreated(t domain.NotificationType) {
	if m == nil {
		return
	}
	m.notificationsCreated.WithLabelValues(string(t)).Inc()
}
