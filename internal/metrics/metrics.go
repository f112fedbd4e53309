// Package metrics exposes Prometheus counters for content generation.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Item sources.
const (
	SourceAI       = "ai"
	SourceTemplate = "template"
	SourceDerived  = "derived"
)

// Metrics holds the service's collectors on a private registry.
type Metrics struct {
	registry           *prometheus.Registry
	itemsGenerated     *prometheus.CounterVec
	saveFailures       *prometheus.CounterVec
	generationFailures *prometheus.CounterVec
	interactive        *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		itemsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tablekeep",
			Name:      "items_generated_total",
			Help:      "Content items produced during campaign generation.",
		}, []string{"category", "source"}),
		saveFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tablekeep",
			Name:      "item_save_failures_total",
			Help:      "Generated items that could not be persisted.",
		}, []string{"category"}),
		generationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tablekeep",
			Name:      "generation_failures_total",
			Help:      "Backend generation attempts that failed and fell back.",
		}, []string{"category"}),
		interactive: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tablekeep",
			Name:      "interactive_generations_total",
			Help:      "Single-item generation requests by outcome.",
		}, []string{"category", "outcome"}),
	}
	reg.MustRegister(
		m.itemsGenerated,
		m.saveFailures,
		m.generationFailures,
		m.interactive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ItemGenerated counts one produced item.
func (m *Metrics) ItemGenerated(category, source string) {
	if m == nil {
		return
	}
	m.itemsGenerated.WithLabelValues(category, source).Inc()
}

// SaveFailed counts one item that could not be persisted.
func (m *Metrics) SaveFailed(category string) {
	if m == nil {
		return
	}
	m.saveFailures.WithLabelValues(category).Inc()
}

// GenerationFailed counts one failed backend attempt.
func (m *Metrics) GenerationFailed(category string) {
	if m == nil {
		return
	}
	m.generationFailures.WithLabelValues(category).Inc()
}

// Interactive counts one single-item generation request.
func (m *Metrics) Interactive(category, outcome string) {
	if m == nil {
		return
	}
	m.interactive.WithLabelValues(category, outcome).Inc()
}
