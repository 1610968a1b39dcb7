package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/mediator/internal/model"
)

// Version is the mediator release
const Version = "v1.0.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mediator",
	Short: "Mediator - canonical mediation between disagreeing agents",
	Long: `Mediator turns disagreeing positions into a hashed, citable canonical record.

Claims shared by every position become invariants. An artifact freezes only
when its stress test leaves no critical gaps and semantic validation approves
its name and declarations. Frozen canons are recalled as prior art for later
disputes and can be challenged on their merits.

Mediator records agreement. It does not decide who is right.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and protocol of Mediator.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mediator %s (%s)\n", Version, model.ProtocolVersion)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.mediator/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("canon-dir", "", "directory of canon documents")
	rootCmd.PersistentFlags().String("store-dir", "", "directory of dispute and challenge records")
	rootCmd.PersistentFlags().String("log-level", "", "log level (DEBUG, INFO, WARN, ERROR)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("canon.dir", rootCmd.PersistentFlags().Lookup("canon-dir"))
	_ = viper.BindPFlag("store.dir", rootCmd.PersistentFlags().Lookup("store-dir"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(model.BaseDir())
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match MEDIATOR_* (MEDIATOR_STORE_DRIVER -> store.driver)
	viper.SetEnvPrefix("MEDIATOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every built-in default so environment variables
// can override keys absent from the config file
func setDefaults() {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return
	}
	var defaults map[string]any
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return
	}
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
}

// loadConfig resolves the effective configuration
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if verbose && cfg.Logging.Level == "INFO" {
		cfg.Logging.Level = "DEBUG"
	}
	cfg.Canon.Dir = expandHome(cfg.Canon.Dir)
	cfg.Store.Dir = expandHome(cfg.Store.Dir)
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	cfg.Logging.Dir = expandHome(cfg.Logging.Dir)
	cfg.RulesFile = expandHome(cfg.RulesFile)
	return cfg, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
