package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/engage/internal/engagement"
	"github.com/mesh-intelligence/engage/internal/metrics"
	"github.com/mesh-intelligence/engage/internal/probe"
	"github.com/mesh-intelligence/engage/internal/theme"
	"github.com/mesh-intelligence/engage/pkg/types"
)

func newVisitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "visit [path[#page-type]...]",
		Short: "Run one session over a sequence of completed navigations",
		Long: "Run one application session. Each argument is a completed navigation,\n" +
			"optionally tagged with a page type (for example /start#home-page).\n" +
			"With no arguments the session lands on \"/\". Redirects issued by the\n" +
			"session are followed as further navigations.",
		RunE: a.runVisit,
	}
}

// visitRecord is one line of --json output.
type visitRecord struct {
	Path string `json:"path"`
	engagement.Decision
}

// queueNavigator collects redirects so the session can follow them after
// the current navigation completes.
type queueNavigator struct {
	pending []string
}

func (n *queueNavigator) Redirect(_ context.Context, path string) {
	n.pending = append(n.pending, path)
}

func (n *queueNavigator) drain() []string {
	p := n.pending
	n.pending = nil
	return p
}

// printPrompter shows the share prompt on a writer.
type printPrompter struct {
	out io.Writer
}

func (p printPrompter) PresentSharePrompt(context.Context) {
	fmt.Fprintln(p.out, "  share: enjoying the app? tell a friend (engage share accept|decline|dismiss)")
}

func (a *app) runVisit(cmd *cobra.Command, args []string) error {
	backend, err := a.openStore()
	if err != nil {
		return err
	}
	defer a.detach(backend)

	reg, m, err := newMetrics()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	platform := probe.Static{Client: a.settings.Client, Reachable: a.settings.Online}

	resolver, err := theme.NewResolver(backend, a.settings.Theme, theme.WithLogger(a.logger), theme.WithMetrics(m))
	if err != nil {
		return userError("%w", err)
	}
	dark := resolver.ResolveInitialDarkMode()

	opts := []engagement.Option{engagement.WithLogger(a.logger), engagement.WithMetrics(m)}
	classifier := engagement.NewClassifier(backend, platform, a.settings.AppVersion, opts...)
	state := engagement.NewSessionState(classifier)

	nav := &queueNavigator{}
	var prompter engagement.SharePrompter = printPrompter{out: out}
	if a.flags.jsonMode {
		prompter = printPrompter{out: io.Discard}
	}
	interceptor := engagement.NewInterceptor(state, backend, platform, nav, prompter, opts...)

	if !a.flags.jsonMode {
		fmt.Fprintf(out, "session %s (theme %s)\n", state.Version, themeName(dark))
	}

	queue := args
	if len(queue) == 0 {
		queue = []string{types.RouteHome}
	}
	enc := json.NewEncoder(out)
	for len(queue) > 0 {
		arg := queue[0]
		queue = queue[1:]

		ev := parseNavigation(arg)
		d := interceptor.OnNavigationCompleted(cmd.Context(), ev)
		if a.flags.jsonMode {
			if err := enc.Encode(visitRecord{Path: ev.Path, Decision: d}); err != nil {
				return sysError("encode decision: %w", err)
			}
		} else {
			fmt.Fprintf(out, "%-12s %-15s count=%d\n", arg, d.Action, d.Count)
		}
		queue = append(queue, nav.drain()...)
	}

	if !a.flags.jsonMode {
		fmt.Fprintf(out, "introduction=%t sponsor_hidden=%t\n", state.ShowIntroduction(), state.SponsorHidden())
	}

	return a.exportMetrics(reg)
}

// newMetrics returns a fresh registry with the engage collectors.
func newMetrics() (*prometheus.Registry, *metrics.Metrics, error) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return nil, nil, sysError("%w", err)
	}
	return reg, m, nil
}

// exportMetrics writes reg to metrics_textfile when one is configured.
func (a *app) exportMetrics(reg prometheus.Gatherer) error {
	path := a.settings.MetricsTextfile
	if path == "" {
		return nil
	}
	if err := metrics.WriteTextfile(path, reg); err != nil {
		return sysError("%w", err)
	}
	a.logger.Debug("metrics written", zap.String("path", path))
	return nil
}

// parseNavigation splits "path#page-type" into a navigation event.
func parseNavigation(arg string) types.NavigationEvent {
	path, tag, _ := strings.Cut(arg, "#")
	if path == "" {
		path = types.RouteHome
	}
	return types.NavigationEvent{Path: path, PageType: tag}
}

func themeName(dark bool) string {
	if dark {
		return "dark"
	}
	return "light"
}
