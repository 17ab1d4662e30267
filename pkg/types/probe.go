package types

// Probe reports ambient platform capabilities.
type Probe interface {
	// IsClient reports whether the code runs in an interactive client
	// context. Outside one, persisted history is not trusted.
	IsClient() bool

	// Online reports whether the client declares itself online. Returns
	// false when no reachability signal is available.
	Online() bool
}

// ColorSchemeSource is implemented by probes that expose a live "preferred
// color scheme" signal. The channel delivers true for dark and is closed
// when the source stops.
type ColorSchemeSource interface {
	ColorSchemeChanges() <-chan bool
}
