package engagement

import (
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/engage/internal/metrics"
	"github.com/mesh-intelligence/engage/pkg/types"
)

// kv wraps a Store with the heuristic's tolerant reads and best-effort
// writes.
type kv struct {
	store   types.Store
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func newKV(store types.Store, o options) kv {
	return kv{store: store, logger: o.logger, metrics: o.metrics}
}

// get returns the raw value; read errors read as absent.
func (k kv) get(key string) (string, bool) {
	v, found, err := k.store.Get(key)
	if err != nil {
		k.logger.Warn("store read failed", zap.String("key", key), zap.Error(err))
		k.metrics.StoreReadFailure()
		return "", false
	}
	return v, found
}

// count parses a non-negative decimal counter.
func (k kv) count(key string) (int, bool) {
	v, found := k.get(key)
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		k.logger.Debug("ignoring unparsable counter", zap.String("key", key), zap.String("value", v))
		return 0, false
	}
	return n, true
}

// jsonInt parses a value stored as a JSON number. found reports whether
// the key is present at all; ok reports whether it parsed.
func (k kv) jsonInt(key string) (n int, found, ok bool) {
	v, found := k.get(key)
	if !found {
		return 0, false, false
	}
	var p *int
	if err := json.Unmarshal([]byte(v), &p); err != nil || p == nil {
		k.logger.Debug("ignoring unparsable JSON number", zap.String("key", key), zap.String("value", v))
		return 0, true, false
	}
	return *p, true, true
}

// flag reports whether key holds a true boolean.
func (k kv) flag(key string) bool {
	v, found := k.get(key)
	if !found {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// set writes and swallows failures.
func (k kv) set(key, value string) {
	if err := k.store.Set(key, value); err != nil {
		k.logger.Warn("store write failed", zap.String("key", key), zap.Error(err))
		k.metrics.StoreWriteFailure()
	}
}

func (k kv) setFlag(key string) {
	k.set(key, strconv.FormatBool(true))
}
