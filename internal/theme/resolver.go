// Package theme resolves the dark-mode preference and keeps it in the
// counter store.
//
// An explicit override from configuration always wins. Without one, the
// last persisted value is used, then the dark default; a live color-scheme
// signal, when the platform has one, updates the value for the rest of the
// session. Every resolved value is written back to the store.
package theme

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/engage/internal/logging"
	"github.com/mesh-intelligence/engage/internal/metrics"
	"github.com/mesh-intelligence/engage/pkg/types"
)

// Override values.
const (
	OverrideDark  = "dark"
	OverrideLight = "light"
)

// Resolution sources, used as metric labels.
const (
	SourceOverride  = "override"
	SourcePersisted = "persisted"
	SourceDefault   = "default"
	SourceSystem    = "system"
)

// DefaultDarkMode applies when nothing else decides.
const DefaultDarkMode = true

// ErrInvalidOverride is returned for an override other than dark or light.
var ErrInvalidOverride = errors.New("theme override must be \"dark\" or \"light\"")

// Resolver owns the session's dark-mode value.
type Resolver struct {
	mu       sync.Mutex
	store    types.Store
	override string
	dark     bool
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver returns a Resolver. override is "", "dark" or "light".
func NewResolver(store types.Store, override string, opts ...Option) (*Resolver, error) {
	switch override {
	case "", OverrideDark, OverrideLight:
	default:
		return nil, fmt.Errorf("%w: got %q", ErrInvalidOverride, override)
	}
	r := &Resolver{
		store:    store,
		override: override,
		dark:     DefaultDarkMode,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrNop(r.logger)
	return r, nil
}

// HasOverride reports whether an explicit override is configured.
func (r *Resolver) HasOverride() bool {
	return r.override != ""
}

// ResolveInitialDarkMode resolves, persists and returns the session's
// initial dark-mode value.
func (r *Resolver) ResolveInitialDarkMode() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	dark, source := r.resolveLocked()
	r.setLocked(dark, source)
	return dark
}

func (r *Resolver) resolveLocked() (bool, string) {
	if r.override != "" {
		return r.override == OverrideDark, SourceOverride
	}
	v, found, err := r.store.Get(types.KeyDarkMode)
	if err != nil {
		r.logger.Warn("store read failed", zap.String("key", types.KeyDarkMode), zap.Error(err))
		r.metrics.StoreReadFailure()
		return DefaultDarkMode, SourceDefault
	}
	if found {
		if dark, err := strconv.ParseBool(v); err == nil {
			return dark, SourcePersisted
		}
	}
	return DefaultDarkMode, SourceDefault
}

// OnColorSchemeChanged applies a live color-scheme change and returns the
// resulting value. It is ignored while an override is configured.
func (r *Resolver) OnColorSchemeChanged(isDark bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.override != "" {
		return r.dark
	}
	r.setLocked(isDark, SourceSystem)
	return r.dark
}

// DarkMode returns the current value.
func (r *Resolver) DarkMode() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dark
}

// Watch follows the probe's color-scheme signal until ctx is done or the
// signal closes. It returns immediately when an override is configured or
// the probe has no signal. onChange, if non-nil, is called after each
// applied change.
func (r *Resolver) Watch(ctx context.Context, probe types.Probe, onChange func(isDark bool)) {
	if r.HasOverride() {
		return
	}
	src, ok := probe.(types.ColorSchemeSource)
	if !ok {
		return
	}
	changes := src.ColorSchemeChanges()
	for {
		select {
		case <-ctx.Done():
			return
		case isDark, ok := <-changes:
			if !ok {
				return
			}
			dark := r.OnColorSchemeChanged(isDark)
			if onChange != nil {
				onChange(dark)
			}
		}
	}
}

// setLocked records and persists dark. Write failures are logged and
// dropped. The caller must hold r.mu.
func (r *Resolver) setLocked(dark bool, source string) {
	r.dark = dark
	if err := r.store.Set(types.KeyDarkMode, strconv.FormatBool(dark)); err != nil {
		r.logger.Warn("store write failed", zap.String("key", types.KeyDarkMode), zap.Error(err))
		r.metrics.StoreWriteFailure()
	}
	r.metrics.ThemeResolution(source)
	r.logger.Debug("theme resolved", zap.Bool("dark", dark), zap.String("source", source))
}
