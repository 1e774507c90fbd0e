// Package metrics holds the Prometheus collectors exported by the HRMS server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	LabelSuccess = "success"
	LabelFailure = "failure"
)

// Metrics holds metrics related to tenant provisioning, resolution and caching.
type Metrics struct {
	Provisions         *prometheus.CounterVec
	ProvisionDuration  prometheus.Histogram
	OrphanedNamespaces prometheus.Counter
	TenantResolutions  *prometheus.CounterVec
	CacheDegraded      *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPLatency        *prometheus.HistogramVec
}

func New() *Metrics {
	const namespace = "hrms"

	return &Metrics{
		Provisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tenant",
			Name:      "provisions_total",
			Help:      "Count of namespace provisioning attempts",
		}, []string{"result"}),

		ProvisionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tenant",
			Name:      "provision_duration_seconds",
			Help:      "Histogram of times spent provisioning a tenant namespace",
			Buckets:   prometheus.ExponentialBuckets(1e-2, 2, 10),
		}),

		OrphanedNamespaces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tenant",
			Name:      "orphaned_namespaces_total",
			Help:      "Count of namespaces left behind after a failed compensating drop",
		}),

		TenantResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tenant",
			Name:      "resolutions_total",
			Help:      "Count of request tenant resolutions by outcome",
		}, []string{"result"}),

		CacheDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "degraded_total",
			Help:      "Count of cache operations that failed and fell back to storage",
		}, []string{"domain", "operation"}),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Count of HTTP requests",
		}, []string{"method", "status"}),

		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of HTTP request latency",
			Buckets:   prometheus.ExponentialBuckets(1e-3, 5, 7),
		}, []string{"method"}),
	}
}

func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Provisions,
		m.ProvisionDuration,
		m.OrphanedNamespaces,
		m.TenantResolutions,
		m.CacheDegraded,
		m.HTTPRequests,
		m.HTTPLatency,
	}
}

// NewRegistry returns a registry holding m's collectors plus the Go runtime
// and process collectors.
func NewRegistry(m *Metrics) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	collectors := append(m.PrometheusCollectors(),
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
