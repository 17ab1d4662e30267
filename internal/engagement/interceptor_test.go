package engagement

import (
	"context"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/engage/internal/memstore"
	"github.com/mesh-intelligence/engage/internal/metrics"
	"github.com/mesh-intelligence/engage/internal/probe"
	"github.com/mesh-intelligence/engage/pkg/types"
)

var (
	homeEvent  = types.NavigationEvent{Path: types.RouteHome, PageType: types.PageHome}
	aboutEvent = types.NavigationEvent{Path: types.RouteAbout, PageType: types.PageAbout}
	otherEvent = types.NavigationEvent{Path: "/settings", PageType: "settings-page"}
)

var ignoreSession = cmpopts.IgnoreFields(Decision{}, "SessionID")

type harness struct {
	store       types.Store
	interceptor *Interceptor
	nav         *recordingNav
	prompter    *recordingPrompter
}

func newHarness(t *testing.T, store types.Store, p types.Probe, opts ...Option) *harness {
	t.Helper()
	c := NewClassifier(store, p, testVersion, opts...)
	state := NewSessionState(c)
	h := &harness{store: store, nav: &recordingNav{}, prompter: &recordingPrompter{}}
	h.interceptor = NewInterceptor(state, store, p, h.nav, h.prompter, opts...)
	return h
}

func TestInterceptor_RedirectsReturningInstallOnNewVersion(t *testing.T) {
	s := memstore.New()
	mustSet(t, s, types.UsageCountKey("2.3.1"), "8")

	h := newHarness(t, s, client)
	got := h.interceptor.OnNavigationCompleted(context.Background(), homeEvent)

	want := Decision{Action: ActionRedirectAbout, Count: 1}
	if diff := cmp.Diff(want, got, ignoreSession); diff != "" {
		t.Errorf("decision mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "1", mustGet(t, s, types.UsageCountKey(testVersion)))
	assert.Equal(t, "true", mustGet(t, s, types.KeyUsed))
	assert.Equal(t, []string{types.RouteAbout}, h.nav.paths())
	assert.Equal(t, 0, h.prompter.count())
	assert.True(t, h.interceptor.State().SponsorHidden())
}

func TestInterceptor_FreshInstallIsTrackedOnly(t *testing.T) {
	s := memstore.New()
	h := newHarness(t, s, client)

	got := h.interceptor.OnNavigationCompleted(context.Background(), homeEvent)

	if diff := cmp.Diff(Decision{Action: ActionTrack, Count: 1}, got, ignoreSession); diff != "" {
		t.Errorf("decision mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, h.nav.paths())
	assert.False(t, h.interceptor.State().SponsorHidden())
	assert.Equal(t, "1", mustGet(t, s, types.UsageCountKey(testVersion)))
}

func TestInterceptor_PresentsSharePrompt(t *testing.T) {
	s := memstore.New()
	mustSet(t, s, types.UsageCountKey(testVersion), "5")

	h := newHarness(t, s, client)
	got := h.interceptor.OnNavigationCompleted(context.Background(), homeEvent)

	if diff := cmp.Diff(Decision{Action: ActionSharePrompt, Count: 6}, got, ignoreSession); diff != "" {
		t.Errorf("decision mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, h.prompter.count())
	assert.Equal(t, "5", mustGet(t, s, types.KeySharePromptShownAt))
	assert.Equal(t, "6", mustGet(t, s, types.UsageCountKey(testVersion)))
	assert.True(t, h.interceptor.State().SponsorHidden())
}

func TestInterceptor_CooldownAcrossSessions(t *testing.T) {
	s := memstore.New()
	mustSet(t, s, types.UsageCountKey(testVersion), "5")

	var actions []Action
	for range 9 {
		h := newHarness(t, s, client)
		actions = append(actions, h.interceptor.OnNavigationCompleted(context.Background(), homeEvent).Action)
	}

	// Shown at 5, then again at 12 once the cooldown has elapsed.
	want := []Action{ActionSharePrompt}
	for range 6 {
		want = append(want, ActionTrack)
	}
	want = append(want, ActionSharePrompt, ActionTrack)

	assert.Equal(t, want, actions)
	assert.Equal(t, "12", mustGet(t, s, types.KeySharePromptShownAt))
	assert.Equal(t, "14", mustGet(t, s, types.UsageCountKey(testVersion)))
}

func TestInterceptor_ShareRequiresHomePage(t *testing.T) {
	s := memstore.New()
	mustSet(t, s, types.UsageCountKey(testVersion), "9")

	h := newHarness(t, s, client)
	got := h.interceptor.OnNavigationCompleted(context.Background(), otherEvent)

	assert.Equal(t, ActionTrack, got.Action)
	assert.Equal(t, 0, h.prompter.count())
	_, found, _ := s.Get(types.KeySharePromptShownAt)
	assert.False(t, found)
}

func TestInterceptor_ShareRequiresOnline(t *testing.T) {
	s := memstore.New()
	mustSet(t, s, types.UsageCountKey(testVersion), "9")

	h := newHarness(t, s, probe.Static{Client: true, Reachable: false})
	got := h.interceptor.OnNavigationCompleted(context.Background(), homeEvent)

	assert.Equal(t, ActionTrack, got.Action)
	assert.Equal(t, 0, h.prompter.count())
}

func TestInterceptor_CorruptShownAtWithholdsPrompt(t *testing.T) {
	for _, stored := range []string{"garbage", "-100", "null", "5.5", ""} {
		t.Run(stored, func(t *testing.T) {
			s := memstore.New()
			mustSet(t, s, types.UsageCountKey(testVersion), "6")
			mustSet(t, s, types.KeySharePromptShownAt, stored)

			h := newHarness(t, s, client)
			got := h.interceptor.OnNavigationCompleted(context.Background(), homeEvent)

			assert.Equal(t, ActionTrack, got.Action)
			assert.Equal(t, 7, got.Count)
			assert.Equal(t, 0, h.prompter.count())
			assert.Equal(t, stored, mustGet(t, s, types.KeySharePromptShownAt))
		})
	}
}

func TestInterceptor_CountSaturates(t *testing.T) {
	s := memstore.New()
	maxCount := strconv.Itoa(math.MaxInt)
	mustSet(t, s, types.UsageCountKey(testVersion), maxCount)
	mustSet(t, s, types.KeyShareDeclined, "true")

	for range 2 {
		h := newHarness(t, s, client)
		got := h.interceptor.OnNavigationCompleted(context.Background(), homeEvent)
		assert.Equal(t, ActionTrack, got.Action)
		assert.Equal(t, math.MaxInt, got.Count)
		assert.Equal(t, maxCount, mustGet(t, s, types.UsageCountKey(testVersion)))
	}
}

func TestInterceptor_NonClientOnlyCounts(t *testing.T) {
	s := memstore.New()
	mustSet(t, s, types.KeyUsed, "true")

	h := newHarness(t, s, probe.Static{Client: false, Reachable: true})
	got := h.interceptor.OnNavigationCompleted(context.Background(), homeEvent)

	assert.Equal(t, ActionTrack, got.Action)
	assert.Equal(t, 1, got.Count)
	assert.Empty(t, h.nav.paths())
}

func TestInterceptor_RespondedUsersAreNeverPrompted(t *testing.T) {
	for _, key := range []string{types.KeyShareAccepted, types.KeyShareDeclined} {
		t.Run(key, func(t *testing.T) {
			s := memstore.New()
			mustSet(t, s, key, "true")
			mustSet(t, s, types.UsageCountKey(testVersion), "5")

			for range 20 {
				h := newHarness(t, s, client)
				got := h.interceptor.OnNavigationCompleted(context.Background(), homeEvent)
				require.Equal(t, ActionTrack, got.Action)
			}
		})
	}
}

func TestInterceptor_DecidesOnlyOnce(t *testing.T) {
	s := memstore.New()
	mustSet(t, s, types.UsageCountKey(testVersion), "5")

	h := newHarness(t, s, client)
	ctx := context.Background()

	first := h.interceptor.OnNavigationCompleted(ctx, homeEvent)
	require.Equal(t, ActionSharePrompt, first.Action)

	for _, ev := range []types.NavigationEvent{homeEvent, aboutEvent, otherEvent, homeEvent} {
		got := h.interceptor.OnNavigationCompleted(ctx, ev)
		assert.Equal(t, ActionNone, got.Action)
		assert.Equal(t, 6, got.Count)
		assert.Equal(t, first.SessionID, got.SessionID)
	}
	assert.Equal(t, 1, h.prompter.count())
	assert.Equal(t, "6", mustGet(t, s, types.UsageCountKey(testVersion)))
}

func TestInterceptor_AtMostOneBranchForRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	events := []types.NavigationEvent{homeEvent, aboutEvent, otherEvent, {Path: "/"}}

	for i := range 200 {
		s := memstore.New()
		if rng.Intn(2) == 0 {
			mustSet(t, s, types.KeyUsed, "true")
		}
		mustSet(t, s, types.UsageCountKey(testVersion), []string{"0", "4", "5", "12", "junk"}[rng.Intn(5)])

		h := newHarness(t, s, probe.Static{Client: rng.Intn(4) != 0, Reachable: rng.Intn(2) == 0})
		before := h.interceptor.State().CurrentCount

		decided := 0
		for range 1 + rng.Intn(10) {
			if h.interceptor.OnNavigationCompleted(context.Background(), events[rng.Intn(len(events))]).Action != ActionNone {
				decided++
			}
		}
		require.Equal(t, 1, decided, "sequence %d", i)
		require.Equal(t, before+1, h.interceptor.State().Count(), "sequence %d", i)
		require.LessOrEqual(t, len(h.nav.paths())+h.prompter.count(), 1, "sequence %d", i)
	}
}

func TestInterceptor_ConcurrentEventsPassGuardOnce(t *testing.T) {
	s := memstore.New()
	mustSet(t, s, types.UsageCountKey(testVersion), "5")
	h := newHarness(t, s, client)

	const workers = 64
	results := make([]Action, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results[w] = h.interceptor.OnNavigationCompleted(context.Background(), homeEvent).Action
		}()
	}
	close(start)
	wg.Wait()

	decided := 0
	for _, a := range results {
		if a != ActionNone {
			decided++
			assert.Equal(t, ActionSharePrompt, a)
		}
	}
	assert.Equal(t, 1, decided)
	assert.Equal(t, 1, h.prompter.count())
	assert.Equal(t, "6", mustGet(t, s, types.UsageCountKey(testVersion)))
}

func TestInterceptor_ReentrantRedirect(t *testing.T) {
	s := memstore.New()
	mustSet(t, s, types.KeyUsed, "true")
	h := newHarness(t, s, client)

	var inner Decision
	h.nav.onRedirect = func(ctx context.Context, path string) {
		inner = h.interceptor.OnNavigationCompleted(ctx, types.NavigationEvent{Path: path})
	}

	outer := h.interceptor.OnNavigationCompleted(context.Background(), homeEvent)

	assert.Equal(t, ActionRedirectAbout, outer.Action)
	assert.Equal(t, ActionNone, inner.Action)
	assert.True(t, h.interceptor.State().AboutPageVisited())
	assert.False(t, h.interceptor.State().ShowIntroduction())
}

func TestInterceptor_AboutVisitedIndependentOfDecision(t *testing.T) {
	h := newHarness(t, memstore.New(), client)
	ctx := context.Background()
	state := h.interceptor.State()

	h.interceptor.OnNavigationCompleted(ctx, homeEvent)
	assert.False(t, state.AboutPageVisited())
	assert.True(t, state.ShowIntroduction())

	h.interceptor.OnNavigationCompleted(ctx, otherEvent)
	assert.False(t, state.AboutPageVisited())

	h.interceptor.OnNavigationCompleted(ctx, types.NavigationEvent{Path: types.RouteAbout})
	assert.True(t, state.AboutPageVisited())
	assert.False(t, state.ShowIntroduction())
}

func TestInterceptor_FirstEventOnAboutPage(t *testing.T) {
	s := memstore.New()
	mustSet(t, s, types.KeyUsed, "true")
	h := newHarness(t, s, client)

	got := h.interceptor.OnNavigationCompleted(context.Background(), aboutEvent)

	assert.Equal(t, ActionTrack, got.Action)
	assert.True(t, h.interceptor.State().AboutPageVisited())
	assert.Empty(t, h.nav.paths())
}

func TestInterceptor_WriteFailuresAreSwallowed(t *testing.T) {
	s := newFaultyStore()
	mustSet(t, s, types.UsageCountKey(testVersion), "5")
	s.failWrites = true

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	h := newHarness(t, s, client, WithMetrics(m))
	got := h.interceptor.OnNavigationCompleted(context.Background(), homeEvent)

	assert.Equal(t, ActionSharePrompt, got.Action)
	assert.Equal(t, 6, got.Count)
	assert.Equal(t, 1, h.prompter.count())
	assert.Equal(t, "5", mustGet(t, s.Store, types.UsageCountKey(testVersion)))

	// Counter, used flag, and shown-at marker.
	assert.Equal(t, 3.0, counterValue(t, reg, "engage_store_write_failures_total"))
}

func TestInterceptor_ReadFailuresFallToDefault(t *testing.T) {
	s := newFaultyStore()
	mustSet(t, s, types.KeyUsed, "true")
	mustSet(t, s, types.UsageCountKey(testVersion), "9")
	s.failReads = true

	h := newHarness(t, s, client)
	got := h.interceptor.OnNavigationCompleted(context.Background(), homeEvent)

	assert.Equal(t, ActionTrack, got.Action)
	assert.Equal(t, 1, got.Count)
}

func TestInterceptor_NilCollaborators(t *testing.T) {
	s := memstore.New()
	mustSet(t, s, types.KeyUsed, "true")
	state := NewSessionState(NewClassifier(s, client, testVersion))
	i := NewInterceptor(state, s, client, nil, nil)

	got := i.OnNavigationCompleted(context.Background(), homeEvent)
	assert.Equal(t, ActionRedirectAbout, got.Action)
}

func TestInterceptor_RecordsDecisionMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	h := newHarness(t, memstore.New(), client, WithMetrics(m))
	h.interceptor.OnNavigationCompleted(context.Background(), homeEvent)
	h.interceptor.OnNavigationCompleted(context.Background(), homeEvent)

	assert.Equal(t, 1, testutil.CollectAndCount(reg, "engage_navigation_decisions_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "engage_navigation_decisions_total"))
}

// counterValue sums every series of the named counter family.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "none", ActionNone.String())
	assert.Equal(t, "redirect_about", ActionRedirectAbout.String())
	assert.Equal(t, "share_prompt", ActionSharePrompt.String())
	assert.Equal(t, "track", ActionTrack.String())
	assert.Equal(t, "action(99)", Action(99).String())

	text, err := ActionSharePrompt.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "share_prompt", string(text))

	_, err = Action(99).MarshalText()
	assert.Error(t, err)
}
