// Package npf builds the repository-side artifacts served to nest during
// end-to-end runs: package manifests, NPF archives and the Repository.toml
// consumed by nest-server.
//
// An NPF is a plain tar archive named <name>-<version>.nest holding a
// manifest.toml, a data.tar.gz payload for effective packages, and an
// optional instructions.sh script.
package npf

import (
	"fmt"
)

// Defaults applied to every package unless overridden. Fixture packages
// only need to be valid, not meaningful, so these mirror the placeholder
// values the repository server has always been fed.
const (
	DefaultRepository  = "tests"
	DefaultMaintainer  = "nest-tests@raven-os.org"
	DefaultUpstreamURL = "https://google.com"
	DefaultWrapDate    = "2019-05-27T16:34:15Z"
)

// Kind discriminates packages that carry a filesystem payload from purely
// logical ones.
type Kind string

const (
	// KindEffective packages ship a data.tar.gz extracted on install.
	KindEffective Kind = "effective"
	// KindVirtual packages exist only in the dependency graph.
	KindVirtual Kind = "virtual"
)

// File is a regular file embedded in an effective package's payload.
type File struct {
	Path    string
	Content string
}

// Package describes a single package to publish into a repository fixture.
// The zero value is not usable; construct with New and chain the With*
// methods.
type Package struct {
	Repository  string
	Category    string
	Name        string
	Version     string
	Kind        Kind
	Description string
	Tags        []string
	Maintainer  string
	Licenses    []string
	UpstreamURL string
	WrapDate    string

	// Dependencies maps full package names to version requirements.
	Dependencies map[string]string

	// Files end up inside data.tar.gz. Only valid for effective packages.
	Files []File

	// Instructions is an optional shell script shipped as instructions.sh.
	Instructions string
}

// New returns a package with the fixture defaults filled in.
func New(category, name, version string, kind Kind) *Package {
	return &Package{
		Repository:   DefaultRepository,
		Category:     category,
		Name:         name,
		Version:      version,
		Kind:         kind,
		Description:  "A package",
		Maintainer:   DefaultMaintainer,
		Licenses:     []string{"gpl_v3"},
		UpstreamURL:  DefaultUpstreamURL,
		WrapDate:     DefaultWrapDate,
		Dependencies: map[string]string{},
	}
}

// WithDescription sets the package description.
func (p *Package) WithDescription(description string) *Package {
	p.Description = description
	return p
}

// WithTags sets the package tags.
func (p *Package) WithTags(tags ...string) *Package {
	p.Tags = tags
	return p
}

// WithDependency records a dependency on another package under the given
// version requirement. Self dependencies are allowed; nest has to cope
// with cycles.
func (p *Package) WithDependency(dep *Package, requirement string) *Package {
	p.Dependencies[dep.FullName()] = requirement
	return p
}

// WithDependencyName records a dependency by full name, for targets not
// materialized alongside this package.
func (p *Package) WithDependencyName(fullName, requirement string) *Package {
	p.Dependencies[fullName] = requirement
	return p
}

// WithFile embeds a file in the package payload.
func (p *Package) WithFile(path, content string) *Package {
	p.Files = append(p.Files, File{Path: path, Content: content})
	return p
}

// WithInstructions attaches an instructions.sh script to the archive.
func (p *Package) WithInstructions(script string) *Package {
	p.Instructions = script
	return p
}

// FullName returns the repository-qualified name, e.g.
// "tests::sys-apps/coreutils".
func (p *Package) FullName() string {
	return fmt.Sprintf("%s::%s/%s", p.Repository, p.Category, p.Name)
}

// ID returns the fully versioned identifier, e.g.
// "tests::sys-apps/coreutils#1.0.0".
func (p *Package) ID() string {
	return fmt.Sprintf("%s#%s", p.FullName(), p.Version)
}

// ArchiveName returns the NPF file name for this package.
func (p *Package) ArchiveName() string {
	return fmt.Sprintf("%s-%s.nest", p.Name, p.Version)
}

// Manifest is the manifest.toml document embedded in an NPF.
type Manifest struct {
	Name         string            `toml:"name"`
	Category     string            `toml:"category"`
	Version      string            `toml:"version"`
	Kind         Kind              `toml:"kind"`
	WrapDate     string            `toml:"wrap_date"`
	Metadata     ManifestMetadata  `toml:"metadata"`
	Dependencies map[string]string `toml:"dependencies"`
}

// ManifestMetadata is the human-facing part of a manifest.
type ManifestMetadata struct {
	Description string   `toml:"description"`
	Tags        []string `toml:"tags"`
	Maintainer  string   `toml:"maintainer"`
	Licenses    []string `toml:"licenses"`
	UpstreamURL string   `toml:"upstream_url"`
}

// Manifest renders the package's manifest document.
func (p *Package) Manifest() Manifest {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	deps := p.Dependencies
	if deps == nil {
		deps = map[string]string{}
	}
	return Manifest{
		Name:     p.Name,
		Category: p.Category,
		Version:  p.Version,
		Kind:     p.Kind,
		WrapDate: p.WrapDate,
		Metadata: ManifestMetadata{
			Description: p.Description,
			Tags:        tags,
			Maintainer:  p.Maintainer,
			Licenses:    p.Licenses,
			UpstreamURL: p.UpstreamURL,
		},
		Dependencies: deps,
	}
}
