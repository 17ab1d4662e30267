package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/engage/internal/paths"
	"github.com/mesh-intelligence/engage/pkg/store"
	"github.com/mesh-intelligence/engage/pkg/types"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend      string `yaml:"backend"`
	DataDir      string `yaml:"data_dir,omitempty"`
	SyncStrategy string `yaml:"sync_strategy"`
	AppVersion   string `yaml:"app_version"`
	Theme        string `yaml:"theme,omitempty"`
	Client       bool   `yaml:"client"`
	Online       bool   `yaml:"online"`
}

const configHeader = "# engage configuration\n" +
	"# Keys not listed here (theme, color_scheme_file, metrics_textfile) are optional.\n"

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize engage storage",
		Long:  "Create the configuration and data directories, then initialize the counter store.",
		Args:  cobra.NoArgs,
		RunE:  a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	dataDir, err := a.dataDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return sysError("create config directory: %w", err)
	}

	cf := configFile{
		Backend:      a.settings.Backend,
		SyncStrategy: a.settings.SyncStrategy,
		AppVersion:   a.settings.AppVersion,
		Theme:        a.settings.Theme,
		Client:       a.settings.Client,
		Online:       a.settings.Online,
	}
	if a.flags.dataDir != "" {
		cf.DataDir = dataDir
	}
	written, err := writeConfigIfMissing(paths.ConfigFile(a.configDir), cf)
	if err != nil {
		return sysError("write config: %w", err)
	}

	backend, err := a.openStore()
	if err != nil {
		return err
	}
	if err := backend.Detach(); err != nil {
		return sysError("detach store: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "engage initialized")
	fmt.Fprintln(out, "  config:", a.configDir)
	fmt.Fprintln(out, "  data:  ", dataDir)
	if !written {
		fmt.Fprintln(out, "  (existing config.yaml kept)")
	}
	return nil
}

// writeConfigIfMissing writes cf to path unless the file already exists.
// It reports whether the file was written.
func writeConfigIfMissing(path string, cf configFile) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	body, err := yaml.Marshal(cf)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(configHeader)
	buf.Write(body)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// dataDir resolves the data directory for this invocation.
func (a *app) dataDir() (string, error) {
	dir, err := paths.ResolveDataDir(a.flags.dataDir, a.settings.DataDir)
	if err != nil {
		return "", sysError("resolve data directory: %w", err)
	}
	return dir, nil
}

// openStore attaches the configured backend. The caller must Detach it.
func (a *app) openStore() (types.Backend, error) {
	dataDir, err := a.dataDir()
	if err != nil {
		return nil, err
	}
	cfg := a.settings.storeConfig(dataDir)
	if err := cfg.Validate(); err != nil {
		return nil, userError("invalid store configuration: %w", err)
	}
	backend, err := store.Open(cfg, a.logger)
	if err != nil {
		return nil, sysError("%w", err)
	}
	return backend, nil
}

// detach releases backend, logging a failure.
func (a *app) detach(backend types.Backend) {
	if err := backend.Detach(); err != nil {
		a.logger.Warn("detach failed", zap.Error(err))
	}
}
