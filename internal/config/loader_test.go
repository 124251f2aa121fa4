package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/doom/nest/internal/harness"
)

// Helper function to create a temporary config file
func createTempConfigFile(t *testing.T, dir string, filename string, content Config) string {
	t.Helper()
	tempFilePath := filepath.Join(dir, filename)
	data, err := yaml.Marshal(&content)
	assert.NoError(t, err)
	err = os.WriteFile(tempFilePath, data, 0644)
	assert.NoError(t, err)
	return tempFilePath
}

// mockPaths redirects every config source into tempDir and silences the
// environment overrides, restoring everything when the test ends.
func mockPaths(t *testing.T, tempDir string) {
	t.Helper()

	originalGetUserConfigPath := getUserConfigPath
	originalGetProjectConfigPath := getProjectConfigPath
	originalOsGetenv := osGetenv
	t.Cleanup(func() {
		getUserConfigPath = originalGetUserConfigPath
		getProjectConfigPath = originalGetProjectConfigPath
		osGetenv = originalOsGetenv
	})

	getUserConfigPath = func() (string, error) {
		return filepath.Join(tempDir, userConfigDir, configFileName), nil
	}
	getProjectConfigPath = func() (string, error) {
		return filepath.Join(tempDir, projectConfigDir, configFileName), nil
	}
	osGetenv = func(string) string { return "" }
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	tempDir := t.TempDir()
	mockPaths(t, tempDir)

	loadedConfig, err := LoadConfig()
	assert.NoError(t, err)

	defaults := GetDefaultConfig()
	assert.Equal(t, defaults, loadedConfig)
	assert.Equal(t, DefaultBasePort, loadedConfig.Server.BasePort)
	assert.Equal(t, DefaultReadyTimeout, loadedConfig.Server.ReadyTimeout)
	assert.Equal(t, DefaultInvokeTime, loadedConfig.Invoke.Timeout)
}

func TestLoadConfig_UserOverride(t *testing.T) {
	tempDir := t.TempDir()
	mockPaths(t, tempDir)

	userConfDir := filepath.Join(tempDir, userConfigDir)
	err := os.MkdirAll(userConfDir, 0755)
	assert.NoError(t, err)

	userOverride := Config{
		Binaries: BinariesConfig{
			Nest:   "/opt/raven/bin/nest",
			Finest: "/opt/raven/bin/finest",
		},
		Server: ServerConfig{
			BasePort: 20000,
		},
	}
	createTempConfigFile(t, userConfDir, configFileName, userOverride)

	loadedConfig, err := LoadConfig()
	assert.NoError(t, err)

	assert.Equal(t, "/opt/raven/bin/nest", loadedConfig.Binaries.Nest)
	assert.Equal(t, "/opt/raven/bin/finest", loadedConfig.Binaries.Finest)
	assert.Equal(t, 20000, loadedConfig.Server.BasePort)
	// Untouched fields keep their defaults
	assert.Equal(t, DefaultReadyTimeout, loadedConfig.Server.ReadyTimeout)
	assert.Equal(t, DefaultInvokeTime, loadedConfig.Invoke.Timeout)
}

func TestLoadConfig_ProjectOverridesUser(t *testing.T) {
	tempDir := t.TempDir()
	mockPaths(t, tempDir)

	userConfDir := filepath.Join(tempDir, userConfigDir)
	assert.NoError(t, os.MkdirAll(userConfDir, 0755))
	createTempConfigFile(t, userConfDir, configFileName, Config{
		Binaries: BinariesConfig{Nest: "/opt/user/nest"},
		Invoke:   InvokeConfig{Timeout: 5 * time.Minute},
	})

	projectConfDir := filepath.Join(tempDir, projectConfigDir)
	assert.NoError(t, os.MkdirAll(projectConfDir, 0755))
	createTempConfigFile(t, projectConfDir, configFileName, Config{
		Binaries:  BinariesConfig{Nest: "/opt/project/nest"},
		Scenarios: ScenariosConfig{Path: "./scenarios"},
	})

	loadedConfig, err := LoadConfig()
	assert.NoError(t, err)

	// Project wins over user for the same field
	assert.Equal(t, "/opt/project/nest", loadedConfig.Binaries.Nest)
	// User-only settings survive
	assert.Equal(t, 5*time.Minute, loadedConfig.Invoke.Timeout)
	assert.Equal(t, "./scenarios", loadedConfig.Scenarios.Path)
}

func TestLoadConfig_EnvOverridesFiles(t *testing.T) {
	tempDir := t.TempDir()
	mockPaths(t, tempDir)

	projectConfDir := filepath.Join(tempDir, projectConfigDir)
	assert.NoError(t, os.MkdirAll(projectConfDir, 0755))
	createTempConfigFile(t, projectConfDir, configFileName, Config{
		Binaries: BinariesConfig{NestServer: "/opt/project/nest-server"},
	})

	osGetenv = func(key string) string {
		if key == harness.EnvNestServerBin {
			return "/tmp/build/nest-server"
		}
		return ""
	}

	loadedConfig, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "/tmp/build/nest-server", loadedConfig.Binaries.NestServer)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	tempDir := t.TempDir()
	mockPaths(t, tempDir)

	projectConfDir := filepath.Join(tempDir, projectConfigDir)
	assert.NoError(t, os.MkdirAll(projectConfDir, 0755))
	badPath := filepath.Join(projectConfDir, configFileName)
	assert.NoError(t, os.WriteFile(badPath, []byte("binaries: ["), 0644))

	_, err := LoadConfig()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "error loading project config")
}

func TestMergeConfigs_KeepsBaseForZeroOverlay(t *testing.T) {
	base := GetDefaultConfig()
	base.Binaries.Nest = "/usr/bin/nest"

	merged := mergeConfigs(base, Config{})
	assert.Equal(t, base, merged)
}
