package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/draftmate/draftmate/internal/config"
	"github.com/draftmate/draftmate/internal/logging"
)

const Version = "0.1.0"

var (
	configPath   string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "draftmate",
	Short: "Draftmate - agentic email drafting workflow",
	Long: `Draftmate runs a multi-step drafting pipeline over a completion
provider: parse the request, classify intent and tone, write and
personalize a draft, validate it, and carry per-recipient continuity
across turns.`,
	Version: Version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to YAML config file (environment variables with prefix DRAFTMATE_ override it)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level (debug, info, warn, error); overrides config")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(seedCmd)
}

// HandleError prints error and exits
func HandleError(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
}

// loadConfig loads and validates configuration, then initializes
// logging. The --log-level flag wins over the config value.
func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	HandleError(err, "Configuration error")

	level := cfg.LogLevel
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	HandleError(logging.Initialize(level), "Failed to setup logging")

	return cfg
}
