// Package engage holds build-level identifiers for the engage module.
package engage

// Version is the application version whose usage the heuristic counts.
// Config key app_version overrides it at runtime.
const Version = "2.4.0"
