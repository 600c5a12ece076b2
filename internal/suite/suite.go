// Package suite wires the mock server, the browser driver and the step
// definitions into a godog test suite and reports on the run.
package suite

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"

	"github.com/axs221/qutebrowser/internal/config"
	"github.com/axs221/qutebrowser/internal/httpbin"
	"github.com/axs221/qutebrowser/internal/quteproc"
	"github.com/axs221/qutebrowser/internal/steps"
	"github.com/axs221/qutebrowser/pkg/logging"
)

const subsystem = "suite"

// Browser is the browser driver as seen by the suite lifecycle.
type Browser interface {
	steps.Browser
	Running() bool
	Crashed() bool
	BeforeScenario(ctx context.Context) error
	AfterScenario(ctx context.Context, failed bool) error
}

// Builder assembles a Suite.
type Builder struct {
	cfg       config.HarnessConfig
	browser   Browser
	noBrowser bool
	clipboard steps.Clipboard
	output    io.Writer
	reporter  Reporter
	injectors []func(context.Context) context.Context
}

// NewBuilder starts a Builder from cfg.
func NewBuilder(cfg config.HarnessConfig) *Builder {
	return &Builder{
		cfg:       cfg,
		clipboard: steps.SystemClipboard{},
		output:    os.Stdout,
	}
}

// WithBrowser replaces the browser process, usually with a fake.
func (b *Builder) WithBrowser(browser Browser) *Builder {
	b.browser = browser
	return b
}

// NoBrowser skips starting the browser before the suite; scenarios still
// start it when it is not running.
func (b *Builder) NoBrowser() *Builder {
	b.noBrowser = true
	return b
}

// WithClipboard replaces the system clipboard.
func (b *Builder) WithClipboard(c steps.Clipboard) *Builder {
	b.clipboard = c
	return b
}

// WithOutput sends formatter output and the summary to w.
func (b *Builder) WithOutput(w io.Writer) *Builder {
	b.output = w
	return b
}

// WithReporter replaces the console summary.
func (b *Builder) WithReporter(r Reporter) *Builder {
	b.reporter = r
	return b
}

// InjectContext adds a function run on every scenario context.
func (b *Builder) InjectContext(fn func(context.Context) context.Context) *Builder {
	b.injectors = append(b.injectors, fn)
	return b
}

// Build validates the configuration and creates the Suite.
func (b *Builder) Build() (*Suite, error) {
	if err := config.Validate(b.cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	server := httpbin.New(b.cfg.HTTPBin)

	browser := b.browser
	if browser == nil {
		browser = quteproc.New(quteproc.Options{
			Browser:  b.cfg.Browser,
			Timeouts: b.cfg.Timeouts,
			Scenario: b.cfg.Scenario,
			Port:     server.Port,
		})
	}

	reporter := b.reporter
	if reporter == nil {
		reporter = NewConsoleReporter(b.output, b.cfg.Features.NoColors)
	}

	s := &Suite{
		cfg:       b.cfg,
		server:    server,
		browser:   browser,
		noBrowser: b.noBrowser,
		clipboard: b.clipboard,
		reporter:  reporter,
		tracker:   newTracker(reporter),
		injectors: b.injectors,
	}

	features := b.cfg.Features
	opts := godog.Options{
		Format:        features.Format,
		Paths:         features.Paths,
		Tags:          features.Tags,
		Strict:        features.Strict,
		Randomize:     features.Randomize,
		StopOnFailure: features.StopOnFailure,
		NoColors:      features.NoColors,
		Output:        colors.Colored(b.output),
	}

	s.suite = &godog.TestSuite{
		Name:                 "qutebdd",
		TestSuiteInitializer: s.initializeSuite,
		ScenarioInitializer:  s.initializeScenario,
		Options:              &opts,
	}
	return s, nil
}

// Suite runs feature files against the browser.
type Suite struct {
	cfg       config.HarnessConfig
	suite     *godog.TestSuite
	server    *httpbin.Server
	browser   Browser
	noBrowser bool
	clipboard steps.Clipboard
	reporter  Reporter
	tracker   *tracker
	injectors []func(context.Context) context.Context

	mu       sync.Mutex
	setupErr error
}

// Options exposes the godog options, e.g. to set FeatureContents.
func (s *Suite) Options() *godog.Options {
	return s.suite.Options
}

func (s *Suite) initializeSuite(sc *godog.TestSuiteContext) {
	sc.BeforeSuite(func() {
		s.tracker.suiteStarted()
		if err := s.setup(context.Background()); err != nil {
			logging.Error(subsystem, err, "Suite setup failed")
			s.mu.Lock()
			s.setupErr = err
			s.mu.Unlock()
		}
	})
	sc.AfterSuite(func() {
		s.teardown(context.Background())
	})
}

func (s *Suite) setup(ctx context.Context) error {
	if err := s.server.Start(ctx); err != nil {
		return err
	}
	if s.noBrowser {
		return nil
	}
	if err := s.browser.Start(ctx); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	return nil
}

func (s *Suite) teardown(ctx context.Context) {
	if err := s.browser.Terminate(); err != nil {
		logging.Error(subsystem, err, "Failed to stop browser")
	}
	if err := s.server.Stop(ctx); err != nil {
		logging.Error(subsystem, err, "Failed to stop httpbin")
	}
}

func (s *Suite) setupError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setupErr
}

func (s *Suite) initializeScenario(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, scenario *godog.Scenario) (context.Context, error) {
		ctx = s.tracker.scenarioStarted(ctx, scenario)
		if err := s.setupError(); err != nil {
			return ctx, err
		}

		if !s.browser.Running() {
			if s.browser.Crashed() {
				logging.Warn(subsystem, "Browser crashed in an earlier scenario, restarting it for %q", scenario.Name)
			} else {
				logging.Info(subsystem, "Browser not running, starting it for %q", scenario.Name)
			}
			if err := s.browser.Start(ctx); err != nil {
				return ctx, fmt.Errorf("failed to start browser: %w", err)
			}
		}

		s.server.Clear()
		if err := s.browser.BeforeScenario(ctx); err != nil {
			return ctx, err
		}

		ctx = steps.WithWorld(ctx, &steps.World{
			Browser:   s.browser,
			Requests:  s.server,
			Clipboard: s.clipboard,
			DataDir:   s.cfg.HTTPBin.DataDir,
			Timeouts:  s.cfg.Timeouts,
		})
		for _, fn := range s.injectors {
			ctx = fn(ctx)
		}
		return ctx, nil
	})

	sc.After(func(ctx context.Context, scenario *godog.Scenario, err error) (context.Context, error) {
		afterErr := s.browser.AfterScenario(ctx, err != nil)
		if err == nil {
			err = afterErr
		}
		s.tracker.scenarioFinished(scenario, err)
		return ctx, afterErr
	})

	sc.StepContext().Before(func(ctx context.Context, st *godog.Step) (context.Context, error) {
		s.tracker.stepStarted(ctx, st)
		return ctx, nil
	})
	sc.StepContext().After(func(ctx context.Context, st *godog.Step, status godog.StepResultStatus, err error) (context.Context, error) {
		s.tracker.stepFinished(ctx, st, status, err)
		return ctx, nil
	})

	steps.Register(sc)
}

// Run executes the suite and returns godog's exit status with the results.
func (s *Suite) Run() (int, SuiteResult) {
	logging.Info(subsystem, "Running features from %v", s.suite.Options.Paths)
	status := s.suite.Run()

	res := s.tracker.result(status)
	if err := s.setupError(); err != nil {
		res.SetupError = err.Error()
		if res.Status == 0 {
			res.Status = 1
		}
	}

	if dir := s.cfg.Report.Path; dir != "" {
		path, err := SaveReport(dir, res)
		if err != nil {
			logging.Error(subsystem, err, "Failed to save report")
		} else {
			res.ReportFile = path
		}
	}

	s.reporter.ReportSuiteResult(res)
	return res.Status, res
}
