package engagement

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/engage/internal/metrics"
	"github.com/mesh-intelligence/engage/pkg/types"
)

// Outcome is the user's response to the share prompt.
type Outcome int

// Outcomes. OutcomeDismissed covers ambient dismissal such as tapping
// outside the dialog.
const (
	OutcomeDismissed Outcome = iota
	OutcomeAccepted
	OutcomeDeclined
)

// ErrUnknownOutcome is returned by ParseOutcome.
var ErrUnknownOutcome = errors.New("unknown share outcome")

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeDeclined:
		return "declined"
	case OutcomeDismissed:
		return "dismissed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// ParseOutcome maps accept/yes, decline/no and dismiss to an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "accept", "accepted", "yes":
		return OutcomeAccepted, nil
	case "decline", "declined", "no":
		return OutcomeDeclined, nil
	case "dismiss", "dismissed":
		return OutcomeDismissed, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOutcome, s)
}

// Recorder persists share prompt responses.
type Recorder struct {
	kv      kv
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewRecorder returns a Recorder writing to store.
func NewRecorder(store types.Store, opts ...Option) *Recorder {
	o := buildOptions(opts)
	return &Recorder{kv: newKV(store, o), logger: o.logger, metrics: o.metrics}
}

// RecordResponse sets the accepted or the declined flag. The other flag
// keeps its stored value.
func (r *Recorder) RecordResponse(accepted bool) {
	if accepted {
		r.Record(OutcomeAccepted)
		return
	}
	r.Record(OutcomeDeclined)
}

// Record stores o. A dismissal writes nothing, so later eligibility is
// unaffected.
func (r *Recorder) Record(o Outcome) {
	switch o {
	case OutcomeAccepted:
		r.kv.setFlag(types.KeyShareAccepted)
	case OutcomeDeclined:
		r.kv.setFlag(types.KeyShareDeclined)
	case OutcomeDismissed:
	default:
		r.logger.Warn("ignoring unknown share outcome", zap.Int("outcome", int(o)))
		return
	}
	r.metrics.ShareResponse(o.String())
	r.logger.Info("share response", zap.Stringer("outcome", o))
}
