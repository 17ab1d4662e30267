// Package cli implements the engage command-line interface.
//
// Each invocation of "engage visit" is one application session: the
// arguments are the navigations completed during that session, in order.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/engage/internal/logging"
	"github.com/mesh-intelligence/engage/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the process exit code for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

func sysError(format string, args ...any) error {
	return &exitError{code: exitSysError, err: fmt.Errorf(format, args...)}
}

// exitCode maps err to a process exit code. Errors raised by cobra itself
// (unknown flags, bad arguments) are user errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

// app is the state shared by the subcommands of one invocation.
type app struct {
	flags     rootFlags
	configDir string
	settings  settings
	logger    *zap.Logger

	newLogger func(verbose bool) (*zap.Logger, error)
}

// NewRootCmd creates the top-level "engage" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{newLogger: logging.New})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "engage",
		Short: "First-session engagement and share prompt heuristics",
		Long: "Engage decides, once per application session, whether to send a returning\n" +
			"user to the about page, ask a loyal user to share the app, or simply\n" +
			"count the visit. It also resolves the dark-mode preference.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $(CWD)/.engage)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.engage-db)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newVisitCmd(a))
	root.AddCommand(newShareCmd(a))
	root.AddCommand(newThemeCmd(a))
	root.AddCommand(newStatusCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "engage:", err)
		os.Exit(exitCode(err))
	}
}

// setup builds the logger and loads configuration before any subcommand.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	logger, err := a.newLogger(a.flags.verbose)
	if err != nil {
		return sysError("%w", err)
	}
	a.logger = logger

	if cmd.Name() == "version" {
		return nil
	}

	a.configDir, err = paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError("resolve config directory: %w", err)
	}
	a.settings, err = loadSettings(a.configDir)
	if err != nil {
		return userError("%w", err)
	}
	a.logger.Debug("configuration loaded",
		zap.String("config_dir", a.configDir),
		zap.String("backend", a.settings.Backend))
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
