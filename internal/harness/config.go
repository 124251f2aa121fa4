package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/doom/nest/internal/npf"
	"github.com/doom/nest/pkg/logging"
)

// ConfigFileName is the name generated configuration files are written
// under.
const ConfigFileName = "nest.toml"

// invalidConfigContent is deliberately unparseable as TOML.
const invalidConfigContent = "<(^v^)>"

// ClientConfig is the TOML document handed to nest through --config.
type ClientConfig struct {
	Repositories map[string]RepositoryEntry `toml:"repositories"`
}

// RepositoryEntry lists the mirrors of one repository.
type RepositoryEntry struct {
	Mirrors []string `toml:"mirrors"`
}

// ConfigForServer builds the standard single-repository configuration
// pointing at a running fixture server.
func ConfigForServer(srv *Server) ClientConfig {
	return ClientConfig{
		Repositories: map[string]RepositoryEntry{
			npf.DefaultRepository: {Mirrors: []string{srv.URL()}},
		},
	}
}

// Config is a generated client configuration file.
type Config struct {
	path string
}

// Path returns the file location, suitable for --config.
func (c *Config) Path() string {
	return c.path
}

// Remove deletes the file. Removing an already-removed configuration is
// not an error, so teardown paths can call it unconditionally.
func (c *Config) Remove() error {
	err := os.Remove(c.path)
	if err != nil && !os.IsNotExist(err) {
		return &TeardownError{Errs: []error{fmt.Errorf("removing config %s: %w", c.path, err)}}
	}
	return nil
}

// WriteConfig renders cfg and writes it under dir. The file is staged
// next to its final location and renamed into place, so readers never
// observe a partially written configuration.
func WriteConfig(dir string, cfg ClientConfig) (*Config, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, setupErrorf("rendering client config: %w", err)
	}
	return writeConfigFile(dir, data, 0o644)
}

// WriteInvalidConfig writes a configuration file whose content is not
// parseable TOML.
func WriteInvalidConfig(dir string) (*Config, error) {
	return writeConfigFile(dir, []byte(invalidConfigContent), 0o644)
}

// WriteUnreadableConfig renders cfg into a file the invoking user cannot
// read back (mode 0222). Root bypasses file modes, so scenarios built on
// this artifact are meaningless when run as root.
func WriteUnreadableConfig(dir string, cfg ClientConfig) (*Config, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, setupErrorf("rendering client config: %w", err)
	}
	return writeConfigFile(dir, data, 0o222)
}

// MissingConfigPath returns a path under dir where no file exists.
func MissingConfigPath(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}

func writeConfigFile(dir string, data []byte, mode os.FileMode) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)

	tmp, err := os.CreateTemp(dir, ConfigFileName+".*")
	if err != nil {
		return nil, setupErrorf("staging client config: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, setupErrorf("writing client config: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, setupErrorf("setting client config mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, setupErrorf("writing client config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return nil, setupErrorf("publishing client config: %w", err)
	}

	logging.Debug("harness", "Wrote client config %s", path)
	return &Config{path: path}, nil
}

// WriteTestConfig writes the standard configuration for srv into a
// test-scoped directory and removes it through t.Cleanup.
func WriteTestConfig(t testing.TB, srv *Server) *Config {
	t.Helper()

	cfg, err := WriteConfig(t.TempDir(), ConfigForServer(srv))
	if err != nil {
		t.Fatalf("writing client config: %v", err)
	}
	t.Cleanup(func() {
		if err := cfg.Remove(); err != nil {
			t.Errorf("removing client config: %v", err)
		}
	})
	return cfg
}
