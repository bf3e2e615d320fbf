package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Moonsong-Labs/crucible/internal/config"
	"github.com/Moonsong-Labs/crucible/internal/logging"
)

// Version is the binary version, set by main.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "crucible",
	Short: "Pre-flight conflict detection for upstream cherry-picks",
	Long: `Crucible tests a list of upstream commits against the current branch
before you cherry-pick them. Each commit is applied in an ephemeral
branch, conflicting files are classified, and a YAML report is written.
Your checkout is restored when the run ends, whatever the outcome.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// reportedError marks a failure whose message has already been written.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// Execute runs the root command
func Execute() error {
	rootCmd.Version = Version
	err := rootCmd.Execute()
	if err != nil {
		if _, ok := err.(reportedError); !ok {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/crucible/config.yaml)")
	rootCmd.PersistentFlags().StringP("repo", "C", "", "run as if crucible was started in this directory")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("repo", rootCmd.PersistentFlags().Lookup("repo"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/crucible")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CRUCIBLE")
	// e.g., CRUCIBLE_DETECT_NAMESPACE for detect.namespace
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// repoDir returns the --repo directory, defaulting to the working directory.
func repoDir() string {
	if dir := viper.GetString("repo"); dir != "" {
		return dir
	}
	return "."
}

// newLogger builds the logger described by cfg.Logging. Callers must Close it.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	return logging.NewLogger(logging.Options{
		Dir:   cfg.Logging.Dir,
		Level: cfg.Logging.Level,
		Rotation: logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		},
	})
}

// loadRuntime loads the validated config and its logger.
func loadRuntime() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
