package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "spritetx"

// Metrics holds the collectors shared by the actor, extractor and preloader.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	transitions   *prometheus.CounterVec
	staleDiscards *prometheus.CounterVec
	extractions   *prometheus.CounterVec
	preloads      *prometheus.CounterVec
	adapters      prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := new(Metrics)
	m.registry = prometheus.NewRegistry()

	m.transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actor_transitions_total",
		Help:      "State transitions applied by actors.",
	}, []string{"from", "to"})
	m.staleDiscards = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actor_stale_discards_total",
		Help:      "Callbacks dropped because a newer state or sequence superseded them.",
	}, []string{"guard"})
	m.extractions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duration_extractions_total",
		Help:      "Duration lookups by outcome (hit, parsed, fallback).",
	}, []string{"outcome"})
	m.preloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "asset_preloads_total",
		Help:      "Preload requests by outcome (ok, error).",
	}, []string{"outcome"})
	m.adapters = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "render_adapters",
		Help:      "Connected websocket render adapters.",
	})

	m.registry.MustRegister(m.transitions, m.staleDiscards, m.extractions, m.preloads, m.adapters)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Transition counts a state change.
func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// StaleDiscard counts a callback dropped by the named guard.
func (m *Metrics) StaleDiscard(guard string) {
	if m == nil {
		return
	}
	m.staleDiscards.WithLabelValues(guard).Inc()
}

// Extraction counts a duration lookup by outcome.
func (m *Metrics) Extraction(outcome string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(outcome).Inc()
}

// Preload counts a preload request by outcome.
func (m *Metrics) Preload(outcome string) {
	if m == nil {
		return
	}
	m.preloads.WithLabelValues(outcome).Inc()
}

// AdapterConnected records a websocket adapter joining.
func (m *Metrics) AdapterConnected() {
	if m == nil {
		return
	}
	m.adapters.Inc()
}

// AdapterDisconnected records a websocket adapter leaving.
func (m *Metrics) AdapterDisconnected() {
	if m == nil {
		return
	}
	m.adapters.Dec()
}
