package config

import (
	"fmt"
	"time"

	"github.com/axs221/qutebrowser/pkg/logging"
)

// GetDefaultConfig returns the built-in configuration. It targets a
// qutebrowser on PATH started with JSON logging and a temporary basedir.
func GetDefaultConfig() HarnessConfig {
	return HarnessConfig{
		Browser: BrowserConfig{
			Executable: "qutebrowser",
			Args: []string{
				"--debug",
				"--json-logging",
				"--no-err-windows",
				"--temp-basedir",
				"about:blank",
			},
			ReadyMessage: "Init done!",
		},
		HTTPBin: HTTPBinConfig{
			Host:    "127.0.0.1",
			Port:    0,
			DataDir: "tests/integration/data",
		},
		Timeouts: Timeouts{
			Start:     30 * time.Second,
			Wait:      15 * time.Second,
			NotLogged: 500 * time.Millisecond,
			Clipboard: 5 * time.Second,
			Shutdown:  10 * time.Second,
		},
		Features: FeaturesConfig{
			Paths:  []string{"tests/integration/features"},
			Format: "pretty",
			Strict: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
	}
}

// Validate checks a merged configuration before it is used.
func Validate(cfg HarnessConfig) error {
	if cfg.Browser.Executable == "" {
		return fmt.Errorf("browser executable must not be empty")
	}

	timeouts := map[string]time.Duration{
		"start":     cfg.Timeouts.Start,
		"wait":      cfg.Timeouts.Wait,
		"notLogged": cfg.Timeouts.NotLogged,
		"clipboard": cfg.Timeouts.Clipboard,
		"shutdown":  cfg.Timeouts.Shutdown,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("timeout %s must be positive, got %v", name, d)
		}
	}

	if cfg.HTTPBin.Port < 0 || cfg.HTTPBin.Port > 65535 {
		return fmt.Errorf("httpbin port must be between 0 and 65535, got %d", cfg.HTTPBin.Port)
	}

	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return err
	}

	switch cfg.Logging.Format {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", cfg.Logging.Format)
	}

	return nil
}
