package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins).
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CODEGRAPH_*)
// 2. Config file (.codegraph/config.yml or .codegraph/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".codegraph")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("CODEGRAPH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("scan.jobs")
	v.BindEnv("scan.languages")
	v.BindEnv("semantic.timeout_seconds")
	v.BindEnv("store.state_dir")
	v.BindEnv("store.retention_commits")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// CODEGRAPH_STATE_DIR wins even over an explicit config file value,
	// and applies whether or not a config file exists.
	if envDir := os.Getenv(StateDirEnvVar); envDir != "" {
		cfg.Store.StateDir = envDir
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("scan.jobs", defaults.Scan.Jobs)
	v.SetDefault("scan.languages", defaults.Scan.Languages)

	v.SetDefault("semantic.timeout_seconds", defaults.Semantic.TimeoutSeconds)
	v.SetDefault("semantic.indexers", defaults.Semantic.Indexers)

	v.SetDefault("store.state_dir", defaults.Store.StateDir)
	v.SetDefault("store.retention_commits", defaults.Store.RetentionCommits)
}

// LoadConfig is a convenience function that creates a loader and loads
// config using the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
