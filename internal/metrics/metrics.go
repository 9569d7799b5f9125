// Package metrics exposes Prometheus instruments for the location and alert
// pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Location update outcomes.
const (
	OutcomeInside       = "inside"
	OutcomeOutside      = "outside"
	OutcomeUserNotFound = "user_not_found"
	OutcomeNoGeofence   = "no_geofence"
	OutcomeError        = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	locationUpdates  *prometheus.CounterVec
	alertsEnqueued   *prometheus.CounterVec
	jobsProcessed    *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
}

// New registers all instruments on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		locationUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geofence_location_updates_total",
			Help: "Location updates handled, by outcome.",
		}, []string{"outcome"}),
		alertsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geofence_alert_jobs_enqueued_total",
			Help: "Alert dispatch jobs handed to the queue, by result.",
		}, []string{"result"}),
		jobsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geofence_alert_jobs_processed_total",
			Help: "Alert dispatch jobs executed by workers, by result.",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geofence_notifications_total",
			Help: "Push notification attempts, by result.",
		}, []string{"result"}),
		dispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "geofence_alert_dispatch_duration_seconds",
			Help:    "Time spent executing one alert dispatch job.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.locationUpdates,
		m.alertsEnqueued,
		m.jobsProcessed,
		m.notifications,
		m.dispatchDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) LocationUpdate(outcome string) {
	if m == nil {
		return
	}
	m.locationUpdates.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AlertEnqueued(err error) {
	if m == nil {
		return
	}
	m.alertsEnqueued.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) JobProcessed(err error, seconds float64) {
	if m == nil {
		return
	}
	m.jobsProcessed.WithLabelValues(result(err)).Inc()
	m.dispatchDuration.Observe(seconds)
}

func (m *Metrics) Notification(sent bool) {
	if m == nil {
		return
	}
	if sent {
		m.notifications.WithLabelValues("sent").Inc()
		return
	}
	m.notifications.WithLabelValues("failed").Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
