package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg, err := WriteConfig(dir, ClientConfig{
		Repositories: map[string]RepositoryEntry{
			"tests": {Mirrors: []string{"http://127.0.0.1:18000"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), cfg.Path())

	data, err := os.ReadFile(cfg.Path())
	require.NoError(t, err)

	var loaded ClientConfig
	require.NoError(t, toml.Unmarshal(data, &loaded))
	assert.Equal(t, []string{"http://127.0.0.1:18000"}, loaded.Repositories["tests"].Mirrors)
}

func TestWriteConfigLeavesNoStagingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteConfig(dir, ClientConfig{})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ConfigFileName, entries[0].Name())
}

func TestWriteInvalidConfigIsUnparseable(t *testing.T) {
	dir := t.TempDir()
	cfg, err := WriteInvalidConfig(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.Path())
	require.NoError(t, err)

	var loaded ClientConfig
	assert.Error(t, toml.Unmarshal(data, &loaded))
}

func TestWriteUnreadableConfigMode(t *testing.T) {
	dir := t.TempDir()
	cfg, err := WriteUnreadableConfig(dir, ClientConfig{})
	require.NoError(t, err)

	info, err := os.Stat(cfg.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o222), info.Mode().Perm())

	if os.Geteuid() != 0 {
		_, err = os.ReadFile(cfg.Path())
		assert.Error(t, err)
	}
}

func TestConfigRemoveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	cfg, err := WriteConfig(dir, ClientConfig{})
	require.NoError(t, err)

	require.NoError(t, cfg.Remove())
	assert.NoFileExists(t, cfg.Path())
	assert.NoError(t, cfg.Remove())
}

func TestMissingConfigPath(t *testing.T) {
	dir := t.TempDir()
	path := MissingConfigPath(dir)

	assert.Equal(t, filepath.Join(dir, ConfigFileName), path)
	assert.NoFileExists(t, path)
}
