package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockConfigPaths points the user and project lookups into dir.
func mockConfigPaths(t *testing.T, dir string) {
	t.Helper()

	originalGetUserConfigPath := getUserConfigPath
	originalGetProjectConfigPath := getProjectConfigPath
	t.Cleanup(func() {
		getUserConfigPath = originalGetUserConfigPath
		getProjectConfigPath = originalGetProjectConfigPath
	})

	getUserConfigPath = func() (string, error) {
		return filepath.Join(dir, userConfigDir, configFileName), nil
	}
	getProjectConfigPath = func() (string, error) {
		return filepath.Join(dir, "project", projectConfigDir, configFileName), nil
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	mockConfigPaths(t, t.TempDir())

	loaded, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, GetDefaultConfig(), loaded)
	assert.NoError(t, Validate(loaded))
}

func TestLoadConfig_UserAndProjectOverride(t *testing.T) {
	dir := t.TempDir()
	mockConfigPaths(t, dir)

	writeFile(t, filepath.Join(dir, userConfigDir, configFileName), `
browser:
  executable: /opt/qutebrowser/bin/qutebrowser
timeouts:
  wait: 20s
`)
	writeFile(t, filepath.Join(dir, "project", projectConfigDir, configFileName), `
browser:
  args: ["--debug"]
httpbin:
  dataDir: testdata
features:
  tags: "~@flaky"
`)

	loaded, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/opt/qutebrowser/bin/qutebrowser", loaded.Browser.Executable)
	assert.Equal(t, []string{"--debug"}, loaded.Browser.Args, "lists are replaced, not merged")
	assert.Equal(t, "Init done!", loaded.Browser.ReadyMessage, "untouched fields keep defaults")
	assert.Equal(t, 20*time.Second, loaded.Timeouts.Wait)
	assert.Equal(t, 500*time.Millisecond, loaded.Timeouts.NotLogged)
	assert.Equal(t, "testdata", loaded.HTTPBin.DataDir)
	assert.Equal(t, "127.0.0.1", loaded.HTTPBin.Host)
	assert.Equal(t, "~@flaky", loaded.Features.Tags)
	assert.True(t, loaded.Features.Strict)
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	mockConfigPaths(t, dir)

	explicit := filepath.Join(dir, "ci.yaml")
	writeFile(t, explicit, `
scenario:
  afterCommands: [":tab-only", ":open about:blank"]
report:
  path: reports
`)

	loaded, err := LoadConfig(explicit)
	require.NoError(t, err)
	assert.Equal(t, []string{":tab-only", ":open about:blank"}, loaded.Scenario.AfterCommands)
	assert.Equal(t, "reports", loaded.Report.Path)
}

func TestLoadConfig_ExplicitFileMissing(t *testing.T) {
	dir := t.TempDir()
	mockConfigPaths(t, dir)

	_, err := LoadConfig(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	mockConfigPaths(t, dir)

	writeFile(t, filepath.Join(dir, userConfigDir, configFileName), "browser: [unclosed")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error loading user config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*HarnessConfig)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *HarnessConfig) {},
		},
		{
			name:    "empty executable",
			mutate:  func(c *HarnessConfig) { c.Browser.Executable = "" },
			wantErr: "executable",
		},
		{
			name:    "zero wait timeout",
			mutate:  func(c *HarnessConfig) { c.Timeouts.Wait = 0 },
			wantErr: "timeout wait",
		},
		{
			name:    "port out of range",
			mutate:  func(c *HarnessConfig) { c.HTTPBin.Port = 70000 },
			wantErr: "port",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *HarnessConfig) { c.Logging.Level = "chatty" },
			wantErr: "log level",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *HarnessConfig) { c.Logging.Format = "xml" },
			wantErr: "log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUserConfigPath(t *testing.T) {
	original := osUserHomeDir
	defer func() { osUserHomeDir = original }()

	osUserHomeDir = func() (string, error) { return "/home/tester", nil }

	path, err := getUserConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/tester", ".config", "qutebdd", "config.yaml"), path)
}
