package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/doom/nest/internal/harness"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd
var osGetenv = os.Getenv

const (
	userConfigDir    = ".config/nest-test"
	projectConfigDir = ".nest-test"
	configFileName   = "config.yaml"
)

// LoadConfig loads the nest-test configuration by layering default, user,
// and project settings, then applying environment overrides.
func LoadConfig() (Config, error) {
	// 1. Start with the default configuration
	config := GetDefaultConfig()

	// 2. Merge the user-specific configuration, when present
	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// User config is optional, keep going
		fmt.Fprintf(os.Stderr, "Warning: could not determine user config path: %v\n", err)
	} else {
		if _, err := os.Stat(userConfigPath); !os.IsNotExist(err) {
			userConfig, err := loadConfigFromFile(userConfigPath)
			if err != nil {
				return Config{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
			}
			config = mergeConfigs(config, userConfig)
		}
	}

	// 3. Merge the project-specific configuration, when present
	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not determine project config path: %v\n", err)
	} else {
		if _, err := os.Stat(projectConfigPath); !os.IsNotExist(err) {
			projectConfig, err := loadConfigFromFile(projectConfigPath)
			if err != nil {
				return Config{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
			}
			config = mergeConfigs(config, projectConfig)
		}
	}

	// 4. Environment variables beat both files for binary paths
	applyEnvOverrides(&config)

	return config, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads a Config from a YAML file.
func loadConfigFromFile(filePath string) (Config, error) {
	var config Config
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, err
	}
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config. Zero values in
// the overlay leave the base untouched.
func mergeConfigs(base, overlay Config) Config {
	merged := base

	if overlay.Binaries.Nest != "" {
		merged.Binaries.Nest = overlay.Binaries.Nest
	}
	if overlay.Binaries.Finest != "" {
		merged.Binaries.Finest = overlay.Binaries.Finest
	}
	if overlay.Binaries.NestServer != "" {
		merged.Binaries.NestServer = overlay.Binaries.NestServer
	}

	if overlay.Server.BasePort != 0 {
		merged.Server.BasePort = overlay.Server.BasePort
	}
	if overlay.Server.ReadyTimeout != 0 {
		merged.Server.ReadyTimeout = overlay.Server.ReadyTimeout
	}
	if overlay.Server.StopGrace != 0 {
		merged.Server.StopGrace = overlay.Server.StopGrace
	}
	if overlay.Server.KeepWorkspaces {
		merged.Server.KeepWorkspaces = true
	}

	if overlay.Invoke.Timeout != 0 {
		merged.Invoke.Timeout = overlay.Invoke.Timeout
	}
	if overlay.Invoke.Sudo {
		merged.Invoke.Sudo = true
	}

	if overlay.Scenarios.Path != "" {
		merged.Scenarios.Path = overlay.Scenarios.Path
	}
	if overlay.Scenarios.ReportPath != "" {
		merged.Scenarios.ReportPath = overlay.Scenarios.ReportPath
	}

	return merged
}

// applyEnvOverrides applies binary path overrides from the environment.
// The variables sit between the config files and the PATH lookup in
// precedence.
func applyEnvOverrides(config *Config) {
	if v := osGetenv(harness.EnvNestBin); v != "" {
		config.Binaries.Nest = v
	}
	if v := osGetenv(harness.EnvFinestBin); v != "" {
		config.Binaries.Finest = v
	}
	if v := osGetenv(harness.EnvNestServerBin); v != "" {
		config.Binaries.NestServer = v
	}
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}
