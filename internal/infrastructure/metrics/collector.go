// Package metrics exposes Prometheus metrics for scans and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/allergenapp/backend/internal/domain"
)

// Collector holds all Prometheus metrics for the application.
// Each collector owns its registry so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	Scans               *prometheus.CounterVec
	AcquisitionFailures *prometheus.CounterVec
	DangerAlerts        prometheus.Counter

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Scans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scans_total",
				Help:      "Completed scans by mode and verdict status",
			},
			[]string{"mode", "status"},
		),
		AcquisitionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "acquisition_failures_total",
				Help:      "Scans aborted because the product could not be fetched",
			},
			[]string{"mode"},
		),
		DangerAlerts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "danger_alerts_total",
				Help:      "Danger alerts raised",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		c.Scans,
		c.AcquisitionFailures,
		c.DangerAlerts,
		c.HTTPRequests,
		c.HTTPDuration,
	)

	return c
}

// ObserveScan implements domain.ScanObserver
func (c *Collector) ObserveScan(mode domain.ScanMode, status domain.Status) {
	c.Scans.WithLabelValues(string(mode), string(status)).Inc()
}

// ObserveAcquisitionFailure implements domain.ScanObserver
func (c *Collector) ObserveAcquisitionFailure(mode domain.ScanMode) {
	c.AcquisitionFailures.WithLabelValues(string(mode)).Inc()
}

// ObserveHTTP records one served request
func (c *Collector) ObserveHTTP(method, route string, status int, took time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
