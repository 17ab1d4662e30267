package engagement

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/engage/internal/logging"
	"github.com/mesh-intelligence/engage/internal/metrics"
)

type options struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	history []string
}

// Option configures a Classifier, Interceptor or Recorder.
type Option func(*options)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics sink. The default records nothing.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithHistory replaces the historical version table scanned by the
// Classifier.
func WithHistory(versions []string) Option {
	return func(o *options) { o.history = versions }
}

func buildOptions(opts []Option) options {
	o := options{history: versionHistory}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.OrNop(o.logger)
	return o
}
