package engagement

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/engage/internal/metrics"
	"github.com/mesh-intelligence/engage/pkg/types"
)

// Navigator redirects the application to another route.
type Navigator interface {
	Redirect(ctx context.Context, path string)
}

// SharePrompter presents the "share this app" prompt. The user's answer
// comes back through Recorder.
type SharePrompter interface {
	PresentSharePrompt(ctx context.Context)
}

// Action is the outcome of a navigation decision.
type Action int

// Actions, in priority order after ActionNone.
const (
	// ActionNone is returned for every navigation after the first.
	ActionNone Action = iota
	ActionRedirectAbout
	ActionSharePrompt
	ActionTrack
)

var actionNames = map[Action]string{
	ActionNone:          "none",
	ActionRedirectAbout: "redirect_about",
	ActionSharePrompt:   "share_prompt",
	ActionTrack:         "track",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "action(" + strconv.Itoa(int(a)) + ")"
}

// MarshalText encodes the action by name.
func (a Action) MarshalText() ([]byte, error) {
	s, ok := actionNames[a]
	if !ok {
		return nil, fmt.Errorf("unknown action %d", int(a))
	}
	return []byte(s), nil
}

// Decision is the result of one navigation event.
type Decision struct {
	Action    Action `json:"action"`
	Count     int    `json:"count"` // Usage count after the decision.
	SessionID string `json:"session_id"`
}

// Interceptor runs the navigation decision once per session.
type Interceptor struct {
	state    *SessionState
	kv       kv
	probe    types.Probe
	nav      Navigator
	prompter SharePrompter
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewInterceptor returns an Interceptor that owns state. nav and prompter
// may be nil, in which case redirects and prompts are only recorded.
func NewInterceptor(state *SessionState, store types.Store, probe types.Probe, nav Navigator, prompter SharePrompter, opts ...Option) *Interceptor {
	o := buildOptions(opts)
	if nav == nil {
		nav = noopNavigator{}
	}
	if prompter == nil {
		prompter = noopPrompter{}
	}
	return &Interceptor{
		state:    state,
		kv:       newKV(store, o),
		probe:    probe,
		nav:      nav,
		prompter: prompter,
		logger:   o.logger.With(zap.String("session", state.ID)),
		metrics:  o.metrics,
	}
}

// State returns the session state owned by the Interceptor.
func (i *Interceptor) State() *SessionState {
	return i.state
}

// OnNavigationCompleted handles one completed navigation. The first call of
// the session evaluates the policy; every later call returns ActionNone.
// The guard is taken before any collaborator runs, so re-entrant calls from
// inside Redirect or PresentSharePrompt also return ActionNone.
func (i *Interceptor) OnNavigationCompleted(ctx context.Context, ev types.NavigationEvent) Decision {
	if ev.IsAbout() && i.state.markAboutVisited() {
		i.logger.Debug("about page reached", zap.String("path", ev.Path))
	}

	if !i.state.claimDecision() {
		return i.decision(ActionNone)
	}

	action := i.evaluate(ev)
	i.apply(ctx, action)

	i.metrics.Decision(action.String())
	i.logger.Info("navigation decision",
		zap.Stringer("action", action),
		zap.String("path", ev.Path),
		zap.String("version", i.state.Version),
		zap.Int("count", i.state.Count()))
	return i.decision(action)
}

// evaluate picks the first matching branch. It has no side effects.
func (i *Interceptor) evaluate(ev types.NavigationEvent) Action {
	if !i.probe.IsClient() || !ev.IsHome() {
		return ActionTrack
	}
	if i.state.CurrentCount == 0 && i.state.HasUsedBefore {
		return ActionRedirectAbout
	}
	if ShareEligible(i.shareState()) {
		return ActionSharePrompt
	}
	return ActionTrack
}

// apply performs the side effects of action in order: count, then UI.
func (i *Interceptor) apply(ctx context.Context, action Action) {
	i.incrementUsage()

	switch action {
	case ActionRedirectAbout:
		i.state.sponsorHidden.Store(true)
		i.nav.Redirect(ctx, types.RouteAbout)
	case ActionSharePrompt:
		i.state.sponsorHidden.Store(true)
		i.kv.set(types.KeySharePromptShownAt, strconv.Itoa(i.state.CurrentCount))
		i.prompter.PresentSharePrompt(ctx)
	}
}

// incrementUsage bumps the current version's counter and marks the
// installation as used. The counter saturates at math.MaxInt.
func (i *Interceptor) incrementUsage() {
	next := i.state.CurrentCount
	if next < math.MaxInt {
		next++
	}
	i.state.count.Store(int64(next))
	i.kv.set(types.UsageCountKey(i.state.Version), strconv.Itoa(next))
	i.kv.setFlag(types.KeyUsed)
}

// shareState loads the predicate input from the store and probe.
func (i *Interceptor) shareState() ShareState {
	s := ShareState{
		CurrentCount: i.state.CurrentCount,
		Online:       i.probe.Online(),
		Accepted:     i.kv.flag(types.KeyShareAccepted),
		Declined:     i.kv.flag(types.KeyShareDeclined),
	}
	switch n, found, ok := i.kv.jsonInt(types.KeySharePromptShownAt); {
	case ok:
		s.ShownAtCount = &n
	case found:
		s.ShownAtInvalid = true
	}
	return s
}

func (i *Interceptor) decision(a Action) Decision {
	return Decision{Action: a, Count: i.state.Count(), SessionID: i.state.ID}
}

type noopNavigator struct{}

func (noopNavigator) Redirect(context.Context, string) {}

type noopPrompter struct{}

func (noopPrompter) PresentSharePrompt(context.Context) {}
