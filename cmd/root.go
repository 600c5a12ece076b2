package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/axs221/qutebrowser/internal/config"
	"github.com/axs221/qutebrowser/pkg/logging"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	// harnessConfig is loaded by the root command before any subcommand runs.
	harnessConfig config.HarnessConfig
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "qutebdd",
	Short: "Run browser feature files against qutebrowser",
	Long: `qutebdd runs Gherkin feature files against a real qutebrowser process.

It starts a local mock HTTP server, launches the browser with JSON logging,
drives it over its IPC socket and checks the log, the requests the browser
made, the session and the page content after every step.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. failed scenarios)
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "qutebdd version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = logFormat
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	// stdout belongs to godog output and the MCP transport.
	logging.Init(level, os.Stderr, cfg.Logging.Format)

	harnessConfig = cfg
	return nil
}

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newStepsCmd())
	rootCmd.AddCommand(newHTTPBinCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (layered over ~/.config/qutebdd/config.yaml and ./.qutebdd/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText, fmt.Sprintf("log format (%s, %s)", logging.FormatText, logging.FormatJSON))
}
