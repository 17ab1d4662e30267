// Package metrics defines the Prometheus counters exported by engage.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without a registry in tests.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "engage"

// Metrics holds the engage collectors.
type Metrics struct {
	decisions          *prometheus.CounterVec
	shareResponses     *prometheus.CounterVec
	themeResolutions   *prometheus.CounterVec
	storeWriteFailures prometheus.Counter
	storeReadFailures  prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigation_decisions_total",
			Help:      "Navigation decisions by action.",
		}, []string{"action"}),
		shareResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "share_responses_total",
			Help:      "Share prompt responses by outcome.",
		}, []string{"outcome"}),
		themeResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "theme_resolutions_total",
			Help:      "Theme resolutions by source.",
		}, []string{"source"}),
		storeWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_write_failures_total",
			Help:      "Swallowed counter store write failures.",
		}),
		storeReadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_read_failures_total",
			Help:      "Counter store reads treated as absent after an error.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.decisions, m.shareResponses, m.themeResolutions,
		m.storeWriteFailures, m.storeReadFailures,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// Decision counts a navigation decision.
func (m *Metrics) Decision(action string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(action).Inc()
}

// ShareResponse counts a share prompt response.
func (m *Metrics) ShareResponse(outcome string) {
	if m == nil {
		return
	}
	m.shareResponses.WithLabelValues(outcome).Inc()
}

// ThemeResolution counts where a theme value came from.
func (m *Metrics) ThemeResolution(source string) {
	if m == nil {
		return
	}
	m.themeResolutions.WithLabelValues(source).Inc()
}

// StoreWriteFailure counts a swallowed write error.
func (m *Metrics) StoreWriteFailure() {
	if m == nil {
		return
	}
	m.storeWriteFailures.Inc()
}

// StoreReadFailure counts a read error treated as an absent value.
func (m *Metrics) StoreReadFailure() {
	if m == nil {
		return
	}
	m.storeReadFailures.Inc()
}

// WriteTextfile writes every metric gathered from g to path in the text
// exposition format, for the node_exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
