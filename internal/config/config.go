package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete crucible configuration
type Config struct {
	Detect  DetectConfig  `mapstructure:"detect"  yaml:"detect"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// DetectConfig controls conflict detection runs
type DetectConfig struct {
	// Namespace is the repository-relative directory that receives reports
	// and commit lists, one subdirectory per short hash.
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
	// BranchPrefix names the ephemeral branch, suffixed with the Unix
	// millisecond time of the run.
	BranchPrefix string `mapstructure:"branch_prefix" yaml:"branch_prefix"`
}

// HistoryConfig controls commit history discovery
type HistoryConfig struct {
	// Remote is the git remote tracking the upstream project
	Remote string `mapstructure:"remote" yaml:"remote"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error"
	Level string `mapstructure:"level" yaml:"level"`
	// Dir receives crucible.log. Empty logs to stderr.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// MaxSizeMB is the size at which the log file is rotated
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is how many rotated files are kept
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Detect: DetectConfig{
			Namespace:    ".claude/upstream",
			BranchPrefix: "conflict-detection",
		},
		History: HistoryConfig{
			Remote: "upstream",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("detect.namespace", defaults.Detect.Namespace)
	viper.SetDefault("detect.branch_prefix", defaults.Detect.BranchPrefix)

	viper.SetDefault("history.remote", defaults.History.Remote)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load for a specific viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "crucible")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".crucible"
	}
	return filepath.Join(home, ".config", "crucible")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
