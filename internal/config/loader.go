package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/qutebdd"
	projectConfigDir = ".qutebdd"
	configFileName   = "config.yaml"
)

// LoadConfig loads the harness configuration by layering default, user,
// project and finally the explicit file (if non-empty).
func LoadConfig(explicitPath string) (HarnessConfig, error) {
	config := GetDefaultConfig()

	userConfigPath, err := getUserConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else if err := overlayIfExists(&config, userConfigPath); err != nil {
		return HarnessConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
	}

	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not determine project config path: %v\n", err)
	} else if err := overlayIfExists(&config, projectConfigPath); err != nil {
		return HarnessConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
	}

	if explicitPath != "" {
		// An explicitly requested file has to exist.
		if err := overlayFromFile(&config, explicitPath); err != nil {
			return HarnessConfig{}, fmt.Errorf("error loading config from %s: %w", explicitPath, err)
		}
	}

	return config, nil
}

var getUserConfigPath = func() (string, error) {
	dir, err := userConfigDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

func overlayIfExists(config *HarnessConfig, filePath string) error {
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return overlayFromFile(config, filePath)
}

// overlayFromFile decodes the YAML file on top of config. Fields absent from
// the file keep their current value; lists present in the file replace the
// current list.
func overlayFromFile(config *HarnessConfig, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return yaml.Unmarshal(data, config)
}

func userConfigDirPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}
