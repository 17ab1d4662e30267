package engagement

import (
	"github.com/mesh-intelligence/engage/pkg/engage"
	"github.com/mesh-intelligence/engage/pkg/types"
)

// Classifier derives usage facts from the persisted counters. It only reads.
type Classifier struct {
	kv      kv
	probe   types.Probe
	version string
	history []string
}

// NewClassifier returns a Classifier for version. An empty version means
// engage.Version.
func NewClassifier(store types.Store, probe types.Probe, version string, opts ...Option) *Classifier {
	o := buildOptions(opts)
	if version == "" {
		version = engage.Version
	}
	return &Classifier{
		kv:      newKV(store, o),
		probe:   probe,
		version: version,
		history: o.history,
	}
}

// Version returns the version whose counter the Classifier reads.
func (c *Classifier) Version() string {
	return c.version
}

// CurrentCount returns the usage count of the current version. Absent or
// unparsable counters read as 0.
func (c *Classifier) CurrentCount() int {
	n, _ := c.kv.count(types.UsageCountKey(c.version))
	return n
}

// HasUsedBefore reports whether this installation was used in any version.
// Outside a client context there is no history to trust and the answer is
// false.
//
// Any stored value for a historical version counts, whatever that version
// was; the scan does not try to judge compatibility between versions.
func (c *Classifier) HasUsedBefore(currentCount int) bool {
	if !c.probe.IsClient() {
		return false
	}
	if currentCount > 0 {
		return true
	}
	if c.kv.flag(types.KeyUsed) {
		return true
	}
	for _, v := range c.history {
		if s, found := c.kv.get(types.UsageCountKey(v)); found && s != "" {
			return true
		}
	}
	return false
}
