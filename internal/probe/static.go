// Package probe provides platform capability probes: a fixed probe built
// from configuration, and a color-scheme source that follows a file.
package probe

import "github.com/mesh-intelligence/engage/pkg/types"

var _ types.Probe = Static{}

// Static reports fixed capabilities.
type Static struct {
	Client    bool // Interactive client context.
	Reachable bool // Network online signal.
}

// IsClient implements types.Probe.
func (s Static) IsClient() bool { return s.Client }

// Online implements types.Probe.
func (s Static) Online() bool { return s.Reachable }

// platform joins a Probe with a live color-scheme signal.
type platform struct {
	types.Probe
	types.ColorSchemeSource
}

// WithColorScheme returns a probe that reports p's capabilities and also
// implements types.ColorSchemeSource through src.
func WithColorScheme(p types.Probe, src types.ColorSchemeSource) types.Probe {
	return platform{Probe: p, ColorSchemeSource: src}
}
