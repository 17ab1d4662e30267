package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engage/internal/probe"
	"github.com/mesh-intelligence/engage/internal/theme"
	"github.com/mesh-intelligence/engage/pkg/types"
)

func newThemeCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Resolve and print the dark-mode preference",
		Long: "Resolve the dark-mode preference from the theme override, the stored\n" +
			"value, or the dark default. With --watch, follow color_scheme_file and\n" +
			"print each change until interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTheme(cmd, watch)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "follow the color scheme file")
	return cmd
}

func (a *app) runTheme(cmd *cobra.Command, watch bool) error {
	if watch && a.settings.ColorSchemeFile == "" {
		return userError("--watch requires color_scheme_file to be configured")
	}

	backend, err := a.openStore()
	if err != nil {
		return err
	}
	defer a.detach(backend)

	resolver, err := theme.NewResolver(backend, a.settings.Theme, theme.WithLogger(a.logger))
	if err != nil {
		return userError("%w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, themeName(resolver.ResolveInitialDarkMode()))
	if !watch {
		return nil
	}
	if resolver.HasOverride() {
		fmt.Fprintln(cmd.ErrOrStderr(), "theme override configured; not watching")
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.watchTheme(ctx, resolver, func(dark bool) {
		fmt.Fprintln(out, themeName(dark))
	})
}

// watchTheme follows the configured color scheme file until ctx is done.
func (a *app) watchTheme(ctx context.Context, resolver *theme.Resolver, onChange func(bool)) error {
	watcher, err := probe.NewSchemeWatcher(a.settings.ColorSchemeFile, a.logger)
	if err != nil {
		return sysError("%w", err)
	}
	defer watcher.Stop()
	if err := watcher.Start(ctx); err != nil {
		return sysError("%w", err)
	}

	var platform types.Probe = probe.Static{Client: a.settings.Client, Reachable: a.settings.Online}
	resolver.Watch(ctx, probe.WithColorScheme(platform, watcher), onChange)
	return nil
}
