// Package types defines the Store and Backend interfaces, the navigation and
// capability-probe contracts, the persisted key layout, and the standard
// error types shared by the engage packages.
package types
