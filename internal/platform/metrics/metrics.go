// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	classifications  *prometheus.CounterVec
	providerFailures *prometheus.CounterVec
	reports          *prometheus.CounterVec
	casRetries       prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spamguard_classifications_total",
			Help: "Messages classified, by the pipeline stage that decided.",
		}, []string{"stage"}),
		providerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spamguard_provider_failures_total",
			Help: "Generative provider calls that errored, timed out or returned garbage.",
		}, []string{"provider"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spamguard_community_reports_total",
			Help: "Community spam reports accepted, by category.",
		}, []string{"category"}),
		casRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spamguard_aggregate_cas_retries_total",
			Help: "Aggregate writes that lost a compare-and-swap race and retried.",
		}),
	}

	m.registry.MustRegister(
		m.classifications,
		m.providerFailures,
		m.reports,
		m.casRetries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveStage(stage string) {
	m.classifications.WithLabelValues(stage).Inc()
}

func (m *Metrics) ProviderFailure(provider string) {
	m.providerFailures.WithLabelValues(provider).Inc()
}

func (m *Metrics) ReportAccepted(category string) {
	m.reports.WithLabelValues(category).Inc()
}

func (m *Metrics) CASRetry() {
	m.casRetries.Inc()
}

// Handler serves the registry in the text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
