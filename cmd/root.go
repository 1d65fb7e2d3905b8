package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
)

var (
	// Persistent CLI flags shared by every subcommand
	configPath  string // YAML configuration file; empty uses built-in defaults
	logLevel    string // Log verbosity level
	datasetPath string // Incident CSV, overrides dataset.path
	storePath   string // Predictor store location, overrides store.path
	storeDriver string // Predictor store backend, overrides store.driver
	osrmURL     string // OSRM base URL, overrides osrm.base_url
	scoringMode string // hybrid or legacy, overrides scoring.mode
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "saferoute",
	Short: "Rank candidate routes by crime-based safety",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig layers configuration sources: built-in defaults, the YAML
// file, environment (including a .env file), then explicitly set flags.
func resolveConfig(cmd *cobra.Command) (safety.Config, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("dataset") {
		cfg.Dataset.Path = datasetPath
	}
	if flags.Changed("model-store") {
		cfg.Store.Path = storePath
	}
	if flags.Changed("store-driver") {
		cfg.Store.Driver = storeDriver
	}
	if flags.Changed("osrm-url") {
		cfg.OSRM.BaseURL = osrmURL
	}
	if flags.Changed("mode") {
		cfg.Scoring.Mode = scoringMode
	}

	if cfg.Dataset.Path == "" {
		return cfg, errMissingDataset
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	pf.StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	pf.StringVar(&datasetPath, "dataset", "", "Path to the incident CSV dataset")
	pf.StringVar(&storePath, "model-store", "", "Path of the trained predictor store")
	pf.StringVar(&storeDriver, "store-driver", "", "Predictor store backend (file, sqlite)")
	pf.StringVar(&osrmURL, "osrm-url", "", "Base URL of the OSRM routing service")
	pf.StringVar(&scoringMode, "mode", "", "Scoring mode (hybrid, legacy)")

	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(diagnosticsCmd)
}
