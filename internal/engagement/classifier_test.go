package engagement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/engage/internal/memstore"
	"github.com/mesh-intelligence/engage/internal/probe"
	"github.com/mesh-intelligence/engage/pkg/engage"
	"github.com/mesh-intelligence/engage/pkg/types"
)

var client = probe.Static{Client: true, Reachable: true}

func TestClassifier_DefaultVersion(t *testing.T) {
	c := NewClassifier(memstore.New(), client, "")
	assert.Equal(t, engage.Version, c.Version())
}

func TestClassifier_CurrentCount(t *testing.T) {
	tests := []struct {
		name  string
		value *string
		want  int
	}{
		{"absent", nil, 0},
		{"stored", ptr("7"), 7},
		{"zero", ptr("0"), 0},
		{"unparsable", ptr("seven"), 0},
		{"negative", ptr("-3"), 0},
		{"empty", ptr(""), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memstore.New()
			if tt.value != nil {
				mustSet(t, s, types.UsageCountKey(testVersion), *tt.value)
			}
			c := NewClassifier(s, client, testVersion)
			assert.Equal(t, tt.want, c.CurrentCount())
		})
	}
}

func TestClassifier_CurrentCountReadErrorIsZero(t *testing.T) {
	s := newFaultyStore()
	mustSet(t, s, types.UsageCountKey(testVersion), "3")
	s.failReads = true

	c := NewClassifier(s, client, testVersion)
	assert.Equal(t, 0, c.CurrentCount())
}

func TestClassifier_HasUsedBefore(t *testing.T) {
	tests := []struct {
		name    string
		probe   types.Probe
		entries map[string]string
		count   int
		want    bool
	}{
		{
			name:  "empty store and zero count",
			probe: client,
			want:  false,
		},
		{
			name:  "positive current count",
			probe: client,
			count: 1,
			want:  true,
		},
		{
			name:    "used flag",
			probe:   client,
			entries: map[string]string{types.KeyUsed: "true"},
			want:    true,
		},
		{
			name:    "used flag false",
			probe:   client,
			entries: map[string]string{types.KeyUsed: "false"},
			want:    false,
		},
		{
			name:    "historical version count",
			probe:   client,
			entries: map[string]string{types.UsageCountKey("1.7.0"): "12"},
			want:    true,
		},
		{
			name:    "historical zero count still counts",
			probe:   client,
			entries: map[string]string{types.UsageCountKey("2.3.1"): "0"},
			want:    true,
		},
		{
			name:    "historical empty value is ignored",
			probe:   client,
			entries: map[string]string{types.UsageCountKey("2.3.1"): ""},
			want:    false,
		},
		{
			name:    "unknown version is not history",
			probe:   client,
			entries: map[string]string{types.UsageCountKey("0.9.0"): "4"},
			want:    false,
		},
		{
			name:    "non-client ignores everything",
			probe:   probe.Static{Client: false, Reachable: true},
			entries: map[string]string{types.KeyUsed: "true"},
			count:   3,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memstore.New()
			for k, v := range tt.entries {
				mustSet(t, s, k, v)
			}
			c := NewClassifier(s, tt.probe, testVersion)
			assert.Equal(t, tt.want, c.HasUsedBefore(tt.count))
		})
	}
}

func TestClassifier_CustomHistory(t *testing.T) {
	s := memstore.New()
	mustSet(t, s, types.UsageCountKey("0.9.0"), "4")

	c := NewClassifier(s, client, testVersion, WithHistory([]string{"0.9.0"}))
	assert.True(t, c.HasUsedBefore(0))
}

func TestClassifier_HasNoSideEffects(t *testing.T) {
	s := memstore.New()
	mustSet(t, s, types.UsageCountKey("2.0.0"), "2")

	c := NewClassifier(s, client, testVersion)
	c.CurrentCount()
	c.HasUsedBefore(0)

	all, err := s.All()
	assert.NoError(t, err)
	assert.Equal(t, map[string]string{types.UsageCountKey("2.0.0"): "2"}, all)
}

func TestVersionHistory_ReturnsCopy(t *testing.T) {
	h := VersionHistory()
	assert.NotContains(t, h, engage.Version)
	h[0] = "mutated"
	assert.NotEqual(t, "mutated", VersionHistory()[0])
}

func ptr[T any](v T) *T { return &v }
