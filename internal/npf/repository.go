package npf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// RepositoryConfig is the Repository.toml document read by nest-server on
// startup. Paths are relative to the server's working directory.
type RepositoryConfig struct {
	Name       string           `toml:"name"`
	PrettyName string           `toml:"pretty_name"`
	PackageDir string           `toml:"package_dir"`
	CacheDir   string           `toml:"cache_dir"`
	AuthToken  string           `toml:"auth_token"`
	Links      []RepositoryLink `toml:"links"`
}

// RepositoryLink is a navigation entry shown by the server's web UI.
type RepositoryLink struct {
	Name   string `toml:"name"`
	URL    string `toml:"url"`
	Active bool   `toml:"active,omitempty"`
}

// DefaultRepositoryConfig returns the configuration every server fixture
// starts from: a repository named "tests" serving ./packages/ with a
// ./cache/ scratch area.
func DefaultRepositoryConfig() RepositoryConfig {
	return RepositoryConfig{
		Name:       DefaultRepository,
		PrettyName: "Tests",
		PackageDir: "./packages/",
		CacheDir:   "./cache/",
		AuthToken:  "a_very_strong_password",
		Links: []RepositoryLink{
			{Name: "Tests", URL: "/", Active: true},
			{Name: "Stable", URL: "https://stable.raven-os.org"},
			{Name: "Beta", URL: "https://beta.raven-os.org"},
			{Name: "Unstable", URL: "https://unstable.raven-os.org"},
		},
	}
}

// WriteTo writes the configuration as Repository.toml inside dir.
func (rc RepositoryConfig) WriteTo(dir string) error {
	data, err := toml.Marshal(rc)
	if err != nil {
		return fmt.Errorf("failed to marshal repository config: %w", err)
	}
	path := filepath.Join(dir, "Repository.toml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Publish writes each package's NPF into the conventional repository
// layout <packageDir>/<category>/<name>/<name>-<version>.nest.
func Publish(packageDir string, packages ...*Package) error {
	for _, pkg := range packages {
		dir := filepath.Join(packageDir, pkg.Category, pkg.Name)
		if _, err := pkg.WriteArchive(dir); err != nil {
			return fmt.Errorf("failed to publish %s: %w", pkg.ID(), err)
		}
	}
	return nil
}
