package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/axs221/qutebrowser/internal/config"
	"github.com/axs221/qutebrowser/internal/suite"
	"github.com/axs221/qutebrowser/pkg/logging"
)

type runOptions struct {
	tags          string
	format        string
	browser       string
	dataDir       string
	report        string
	strict        bool
	stopOnFailure bool
	random        int64
	port          int
	noColor       bool
}

func newRunCmd() *cobra.Command {
	return runCmdFor(&runOptions{})
}

// runCmdFor creates the run command with its flags bound to opts.
func runCmdFor(opts *runOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Run feature files against the browser",
		Long: `Run Gherkin feature files against a freshly started browser.

Paths may be feature files or directories; without paths the configured
features.paths are used. Every flag overrides the matching config value.

Example usage:
  qutebdd run                                  # Run the configured features
  qutebdd run tests/integration/features/yankpaste.feature
  qutebdd run --tags "@smoke && ~@flaky"       # Filter scenarios by tag
  qutebdd run --format progress --report out/  # Compact output, JSON report
  qutebdd run --browser ./.venv/bin/qutebrowser`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeatures(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.tags, "tags", "t", "", "tag expression selecting scenarios")
	flags.StringVarP(&opts.format, "format", "f", "", "godog formatter (pretty, progress, cucumber, junit, events)")
	flags.StringVar(&opts.browser, "browser", "", "browser executable")
	flags.StringVar(&opts.dataDir, "data-dir", "", "directory served under /data/")
	flags.StringVar(&opts.report, "report", "", "directory for the JSON report")
	flags.BoolVar(&opts.strict, "strict", true, "fail on undefined or pending steps")
	flags.BoolVar(&opts.stopOnFailure, "stop-on-failure", false, "stop after the first failing scenario")
	flags.Int64Var(&opts.random, "random", 0, "randomize scenario order with this seed (-1 picks one)")
	flags.IntVar(&opts.port, "port", 0, "mock server port (0 picks a free one)")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	return cmd
}

// applyRunOptions overlays the flags the user set onto cfg.
func applyRunOptions(cmd *cobra.Command, opts *runOptions, args []string, cfg *config.HarnessConfig) {
	flags := cmd.Flags()
	if len(args) > 0 {
		cfg.Features.Paths = args
	}
	if flags.Changed("tags") {
		cfg.Features.Tags = opts.tags
	}
	if flags.Changed("format") {
		cfg.Features.Format = opts.format
	}
	if flags.Changed("browser") {
		cfg.Browser.Executable = opts.browser
	}
	if flags.Changed("data-dir") {
		cfg.HTTPBin.DataDir = opts.dataDir
	}
	if flags.Changed("report") {
		cfg.Report.Path = opts.report
	}
	if flags.Changed("strict") {
		cfg.Features.Strict = opts.strict
	}
	if flags.Changed("stop-on-failure") {
		cfg.Features.StopOnFailure = opts.stopOnFailure
	}
	if flags.Changed("random") {
		cfg.Features.Randomize = opts.random
	}
	if flags.Changed("port") {
		cfg.HTTPBin.Port = opts.port
	}
	if flags.Changed("no-color") {
		cfg.Features.NoColors = opts.noColor
	}
}

func runFeatures(cmd *cobra.Command, opts *runOptions, args []string) error {
	cfg := harnessConfig
	applyRunOptions(cmd, opts, args, &cfg)

	ctx, cancel := signalContext(cmd.Context(), "Received interrupt signal, stopping after the current step...")
	defer cancel()

	s, err := suite.NewBuilder(cfg).WithOutput(cmd.OutOrStdout()).Build()
	if err != nil {
		return err
	}
	// Steps wait on this context, so an interrupt fails the running step and
	// the suite teardown stops the browser.
	s.Options().DefaultContext = ctx

	status, res := s.Run()
	if status != 0 {
		if res.SetupError != "" {
			return fmt.Errorf("suite setup failed: %s", res.SetupError)
		}
		return fmt.Errorf("%d of %d scenarios failed (godog status %d)", res.FailedScenarios, res.TotalScenarios, status)
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, msg string) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			logging.Warn("cmd", "%s", msg)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
