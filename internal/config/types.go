package config

import (
	"time"
)

// HarnessConfig is the top-level configuration structure for qutebdd.
type HarnessConfig struct {
	Browser  BrowserConfig  `yaml:"browser"`
	HTTPBin  HTTPBinConfig  `yaml:"httpbin"`
	Timeouts Timeouts       `yaml:"timeouts"`
	Scenario ScenarioConfig `yaml:"scenario"`
	Features FeaturesConfig `yaml:"features"`
	Report   ReportConfig   `yaml:"report"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// BrowserConfig describes how to launch the browser under test.
type BrowserConfig struct {
	Executable   string            `yaml:"executable"`             // Binary to run, e.g. "qutebrowser" or "python3"
	Args         []string          `yaml:"args,omitempty"`         // Arguments passed on every start
	Env          map[string]string `yaml:"env,omitempty"`          // Extra environment variables
	ReadyMessage string            `yaml:"readyMessage,omitempty"` // Log message signalling the browser accepts commands
	IPCVersion   string            `yaml:"ipcVersion,omitempty"`   // Value of the "version" field sent over IPC

	// IgnoredMessages are glob patterns (only * is special) for warning/error
	// lines that should not fail a scenario.
	IgnoredMessages []string `yaml:"ignoredMessages,omitempty"`
}

// HTTPBinConfig configures the in-process mock HTTP server.
type HTTPBinConfig struct {
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`    // 0 picks a free port
	DataDir string `yaml:"dataDir,omitempty"` // Served under /data/ and used by page source assertions
}

// Timeouts bounds every blocking operation of the harness.
type Timeouts struct {
	Start     time.Duration `yaml:"start,omitempty"`
	Wait      time.Duration `yaml:"wait,omitempty"`
	NotLogged time.Duration `yaml:"notLogged,omitempty"`
	Clipboard time.Duration `yaml:"clipboard,omitempty"`
	Shutdown  time.Duration `yaml:"shutdown,omitempty"`
}

// ScenarioConfig holds commands sent to the browser around every scenario.
type ScenarioConfig struct {
	BeforeCommands []string `yaml:"beforeCommands,omitempty"`
	AfterCommands  []string `yaml:"afterCommands,omitempty"`
}

// FeaturesConfig selects and formats the feature files to run.
type FeaturesConfig struct {
	Paths         []string `yaml:"paths,omitempty"`
	Tags          string   `yaml:"tags,omitempty"`
	Format        string   `yaml:"format,omitempty"`
	Strict        bool     `yaml:"strict"`
	Randomize     int64    `yaml:"randomize,omitempty"` // -1 picks a random seed
	StopOnFailure bool     `yaml:"stopOnFailure,omitempty"`
	NoColors      bool     `yaml:"noColors,omitempty"`
}

// ReportConfig controls the JSON report written after a run.
type ReportConfig struct {
	Path string `yaml:"path,omitempty"` // Directory; empty disables the report file
}

// LoggingConfig controls the harness' own logging.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"` // "text" or "json"
}
