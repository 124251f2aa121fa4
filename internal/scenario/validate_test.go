package scenario

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validScenario() *Scenario {
	s := &Scenario{
		Name: "install-standalone-package",
		Packages: []PackageSpec{
			{Name: "standalone"},
		},
		Steps: []Step{
			{Command: CommandPull, Expect: Expectation{Exit: 0}},
			{Command: CommandInstall, Packages: []string{"standalone"},
				Expect: Expectation{Exit: 0, Installed: []string{"standalone"}}},
		},
	}
	s.Normalize()
	return s
}

func TestValidateAcceptsWellFormedScenario(t *testing.T) {
	assert.Empty(t, Validate(validScenario()))
}

func TestValidateProblems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Scenario)
		want   string
	}{
		{
			"missing name",
			func(s *Scenario) { s.Name = "" },
			"has no name",
		},
		{
			"no steps",
			func(s *Scenario) { s.Steps = nil },
			"has no steps",
		},
		{
			"unknown preset",
			func(s *Scenario) { s.Config.Preset = "garbled" },
			"unknown config preset",
		},
		{
			"valid preset without server",
			func(s *Scenario) { s.Server = boolPtr(false) },
			"needs a server",
		},
		{
			"packages without server",
			func(s *Scenario) {
				s.Server = boolPtr(false)
				s.Config.Preset = PresetMissing
			},
			"no server to serve them",
		},
		{
			"unknown command",
			func(s *Scenario) { s.Steps[0].Command = "upgrade" },
			"unknown command",
		},
		{
			"unknown bin",
			func(s *Scenario) { s.Steps[0].Bin = "nests" },
			"unknown bin",
		},
		{
			"install without packages",
			func(s *Scenario) { s.Steps[1].Packages = nil },
			"needs at least one package",
		},
		{
			"pull with packages",
			func(s *Scenario) { s.Steps[0].Packages = []string{"standalone"} },
			"takes no packages",
		},
		{
			"bad answer",
			func(s *Scenario) { s.Steps[1].Answer = "maybe" },
			"answer must be yes or no",
		},
		{
			"unknown package kind",
			func(s *Scenario) { s.Packages[0].Kind = "imaginary" },
			"unknown kind",
		},
		{
			"duplicate package",
			func(s *Scenario) { s.Packages = append(s.Packages, s.Packages[0]) },
			"duplicate package",
		},
		{
			"unresolvable dependency",
			func(s *Scenario) {
				s.Packages[0].Dependencies = map[string]string{"ghost": "1.0.0"}
			},
			`unknown package "ghost"`,
		},
		{
			"graph assertion without chroot",
			func(s *Scenario) { s.Chroot = boolPtr(false) },
			"graph assertions need a chroot",
		},
		{
			"unresolvable expectation",
			func(s *Scenario) { s.Steps[1].Expect.Installed = []string{"ghost"} },
			`unknown package "ghost"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validScenario()
			tt.mutate(s)

			problems := Validate(s)
			require.NotEmpty(t, problems)

			found := false
			for _, p := range problems {
				if strings.Contains(p.Error(), tt.want) {
					found = true
					break
				}
			}
			assert.True(t, found, "no problem mentions %q in %v", tt.want, problems)
		})
	}
}

func TestValidateSetFlagsDuplicateNames(t *testing.T) {
	first := validScenario()
	first.SourceFile = "scenarios/a.yaml"
	second := validScenario()
	second.SourceFile = "scenarios/b.yaml"

	problems := ValidateSet([]*Scenario{first, second})
	require.NotEmpty(t, problems)
	assert.Contains(t, problems[0].Error(), "defined in both")
}
