package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/engage/pkg/engage"
	"github.com/mesh-intelligence/engage/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	envPrefix = "ENGAGE"

	cfgKeyBackend         = "backend"
	cfgKeyDataDir         = "data_dir"
	cfgKeySyncStrategy    = "sync_strategy"
	cfgKeyAppVersion      = "app_version"
	cfgKeyTheme           = "theme"
	cfgKeyClient          = "client"
	cfgKeyOnline          = "online"
	cfgKeyColorSchemeFile = "color_scheme_file"
	cfgKeyMetricsTextfile = "metrics_textfile"
)

// settings is the decoded config.yaml.
type settings struct {
	Backend         string `mapstructure:"backend"`
	DataDir         string `mapstructure:"data_dir"`
	SyncStrategy    string `mapstructure:"sync_strategy"`
	AppVersion      string `mapstructure:"app_version"`
	Theme           string `mapstructure:"theme"`
	Client          bool   `mapstructure:"client"`
	Online          bool   `mapstructure:"online"`
	ColorSchemeFile string `mapstructure:"color_scheme_file"`
	MetricsTextfile string `mapstructure:"metrics_textfile"`
}

// envKeys may be overridden by ENGAGE_<KEY>. data_dir is excluded: its
// environment variable ranks below config.yaml and is handled by paths.
var envKeys = []string{
	cfgKeyBackend,
	cfgKeySyncStrategy,
	cfgKeyAppVersion,
	cfgKeyTheme,
	cfgKeyClient,
	cfgKeyOnline,
	cfgKeyColorSchemeFile,
	cfgKeyMetricsTextfile,
}

// newViper returns a Viper instance with defaults and environment
// bindings, reading config.yaml from configDir.
func newViper(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeySyncStrategy, types.SyncImmediate)
	v.SetDefault(cfgKeyAppVersion, engage.Version)
	v.SetDefault(cfgKeyClient, true)
	v.SetDefault(cfgKeyOnline, true)

	v.SetEnvPrefix(envPrefix)
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Missing config.yaml is not an error.
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// loadSettings reads and decodes configuration from configDir.
func loadSettings(configDir string) (settings, error) {
	v, err := newViper(configDir)
	if err != nil {
		return settings{}, err
	}
	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}

// storeConfig returns the backend configuration for dataDir.
func (s settings) storeConfig(dataDir string) types.Config {
	return types.Config{
		Backend:      s.Backend,
		DataDir:      dataDir,
		SyncStrategy: s.SyncStrategy,
	}
}
