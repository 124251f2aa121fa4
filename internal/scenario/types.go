// Package scenario defines the YAML format end-to-end scenarios are
// written in, with loading, normalization and validation.
package scenario

import (
	"fmt"
	"strings"
	"time"

	"github.com/doom/nest/internal/npf"
)

// Config presets name the configuration artifact a scenario runs with.
const (
	// PresetValid points the client at the scenario's server.
	PresetValid = "valid"
	// PresetMissing passes a --config path where no file exists.
	PresetMissing = "missing"
	// PresetUnreadable passes a config the invoking user cannot read.
	PresetUnreadable = "unreadable"
	// PresetInvalid passes a config that is not parseable TOML.
	PresetInvalid = "invalid"
)

// Binaries a step can drive.
const (
	BinNest   = "nest"
	BinFinest = "finest"
)

// Commands a step can run.
const (
	CommandPull      = "pull"
	CommandInstall   = "install"
	CommandUninstall = "uninstall"
	CommandHelp      = "help"
)

// Scenario is one end-to-end scenario: a fixture description plus the
// steps to run against it.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Tags        []string      `yaml:"tags,omitempty"`
	Packages    []PackageSpec `yaml:"packages,omitempty"`
	Server      *bool         `yaml:"server,omitempty"`
	Config      ConfigSpec    `yaml:"config,omitempty"`
	Chroot      *bool         `yaml:"chroot,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	Steps       []Step        `yaml:"steps"`

	// SourceFile is where the scenario was loaded from.
	SourceFile string `yaml:"-"`
}

// ConfigSpec selects the configuration artifact generated for the
// scenario.
type ConfigSpec struct {
	Preset string `yaml:"preset,omitempty"`
}

// PackageSpec describes a package published into the scenario's
// repository before the server starts.
type PackageSpec struct {
	Name        string   `yaml:"name"`
	Category    string   `yaml:"category,omitempty"`
	Version     string   `yaml:"version,omitempty"`
	Kind        string   `yaml:"kind,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`

	// Dependencies maps package references to version requirements.
	// A bare name refers to a sibling spec in the same scenario; a
	// repository-qualified name ("tests::sys-libs/x") is recorded
	// verbatim.
	Dependencies map[string]string `yaml:"dependencies,omitempty"`
}

// Step is a single CLI invocation with its expected outcome.
type Step struct {
	Name     string        `yaml:"name,omitempty"`
	Bin      string        `yaml:"bin,omitempty"`
	Command  string        `yaml:"command"`
	Packages []string      `yaml:"packages,omitempty"`
	Answer   string        `yaml:"answer,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
	Expect   Expectation   `yaml:"expect"`
}

// Expectation is what a step asserts after the invocation returned.
// Installed, NotInstalled and Versions are checked against the target's
// dependency graph and accept bare sibling names or full names.
type Expectation struct {
	Exit         int      `yaml:"exit"`
	Installed    []string `yaml:"installed,omitempty"`
	NotInstalled []string `yaml:"not_installed,omitempty"`
	Versions     []string `yaml:"versions,omitempty"`
}

// HasGraphAssertions reports whether the expectation inspects the
// dependency graph.
func (e *Expectation) HasGraphAssertions() bool {
	return len(e.Installed) > 0 || len(e.NotInstalled) > 0 || len(e.Versions) > 0
}

func boolPtr(v bool) *bool { return &v }

// Normalize fills optional fields with their defaults. Loaders call it;
// hand-built scenarios should too before running.
func (s *Scenario) Normalize() {
	if s.Server == nil {
		s.Server = boolPtr(true)
	}
	if s.Chroot == nil {
		s.Chroot = boolPtr(true)
	}
	if s.Config.Preset == "" {
		s.Config.Preset = PresetValid
	}
	for i := range s.Packages {
		pkg := &s.Packages[i]
		if pkg.Category == "" {
			pkg.Category = "sys-apps"
		}
		if pkg.Version == "" {
			pkg.Version = "1.0.0"
		}
		if pkg.Kind == "" {
			pkg.Kind = string(npf.KindVirtual)
		}
	}
	for i := range s.Steps {
		step := &s.Steps[i]
		if step.Bin == "" {
			step.Bin = BinNest
		}
		if step.Name == "" {
			step.Name = strings.TrimSpace(fmt.Sprintf("%s %s %s",
				step.Bin, step.Command, strings.Join(step.Packages, " ")))
		}
	}
}

// NeedsServer reports whether the scenario starts a repository server.
func (s *Scenario) NeedsServer() bool {
	return s.Server == nil || *s.Server
}

// NeedsChroot reports whether the scenario targets a throwaway root.
func (s *Scenario) NeedsChroot() bool {
	return s.Chroot == nil || *s.Chroot
}

// findSpec returns the sibling spec with the given name. When several
// versions of the same name exist they share a full name, so the first
// match is as good as any.
func (s *Scenario) findSpec(name string) *PackageSpec {
	for i := range s.Packages {
		if s.Packages[i].Name == name {
			return &s.Packages[i]
		}
	}
	return nil
}

// ResolveName expands a package reference into a repository-qualified
// full name. Bare names must refer to a sibling spec.
func (s *Scenario) ResolveName(ref string) (string, error) {
	if strings.Contains(ref, "::") {
		return ref, nil
	}
	name, _, _ := strings.Cut(ref, "#")
	spec := s.findSpec(name)
	if spec == nil {
		return "", fmt.Errorf("unknown package %q (not declared in scenario %q)", name, s.Name)
	}
	full := fmt.Sprintf("%s::%s/%s", npf.DefaultRepository, spec.Category, spec.Name)
	if _, version, ok := strings.Cut(ref, "#"); ok {
		full = fmt.Sprintf("%s#%s", full, version)
	}
	return full, nil
}

// BuildPackages materializes the scenario's package specs, resolving
// dependency references between them.
func (s *Scenario) BuildPackages() ([]*npf.Package, error) {
	packages := make([]*npf.Package, 0, len(s.Packages))
	for i := range s.Packages {
		spec := &s.Packages[i]
		pkg := npf.New(spec.Category, spec.Name, spec.Version, npf.Kind(spec.Kind))
		if spec.Description != "" {
			pkg.WithDescription(spec.Description)
		}
		if len(spec.Tags) > 0 {
			pkg.WithTags(spec.Tags...)
		}
		for ref, requirement := range spec.Dependencies {
			full, err := s.ResolveName(ref)
			if err != nil {
				return nil, fmt.Errorf("package %q: %w", spec.Name, err)
			}
			pkg.WithDependencyName(full, requirement)
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}
