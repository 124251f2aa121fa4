package scenario

import (
	"fmt"
)

var knownPresets = map[string]bool{
	PresetValid:      true,
	PresetMissing:    true,
	PresetUnreadable: true,
	PresetInvalid:    true,
}

var knownBins = map[string]bool{
	BinNest:   true,
	BinFinest: true,
}

var knownCommands = map[string]bool{
	CommandPull:      true,
	CommandInstall:   true,
	CommandUninstall: true,
	CommandHelp:      true,
}

var knownKinds = map[string]bool{
	"virtual":   true,
	"effective": true,
}

// Validate checks a normalized scenario for structural problems and
// returns one error per problem found.
func Validate(s *Scenario) []error {
	var problems []error
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if s.Name == "" {
		fail("scenario has no name")
	}
	if len(s.Steps) == 0 {
		fail("scenario %q has no steps", s.Name)
	}

	if !knownPresets[s.Config.Preset] {
		fail("scenario %q: unknown config preset %q", s.Name, s.Config.Preset)
	}
	if s.Config.Preset == PresetValid && !s.NeedsServer() {
		fail("scenario %q: config preset %q needs a server to point at", s.Name, PresetValid)
	}
	if len(s.Packages) > 0 && !s.NeedsServer() {
		fail("scenario %q: declares packages but no server to serve them", s.Name)
	}

	seen := map[string]bool{}
	for i := range s.Packages {
		pkg := &s.Packages[i]
		if pkg.Name == "" {
			fail("scenario %q: package %d has no name", s.Name, i)
			continue
		}
		if !knownKinds[pkg.Kind] {
			fail("scenario %q: package %q has unknown kind %q", s.Name, pkg.Name, pkg.Kind)
		}
		key := pkg.Name + "#" + pkg.Version
		if seen[key] {
			fail("scenario %q: duplicate package %s", s.Name, key)
		}
		seen[key] = true
	}

	if _, err := s.BuildPackages(); err != nil {
		fail("scenario %q: %v", s.Name, err)
	}

	for i := range s.Steps {
		validateStep(s, i, fail)
	}

	return problems
}

func validateStep(s *Scenario, i int, fail func(string, ...any)) {
	step := &s.Steps[i]

	if !knownBins[step.Bin] {
		fail("scenario %q step %q: unknown bin %q", s.Name, step.Name, step.Bin)
	}
	if !knownCommands[step.Command] {
		fail("scenario %q step %q: unknown command %q", s.Name, step.Name, step.Command)
		return
	}

	switch step.Command {
	case CommandInstall, CommandUninstall:
		if len(step.Packages) == 0 {
			fail("scenario %q step %q: %s needs at least one package", s.Name, step.Name, step.Command)
		}
	default:
		if len(step.Packages) > 0 {
			fail("scenario %q step %q: %s takes no packages", s.Name, step.Name, step.Command)
		}
	}

	if step.Answer != "" && step.Answer != "yes" && step.Answer != "no" {
		fail("scenario %q step %q: answer must be yes or no, got %q", s.Name, step.Name, step.Answer)
	}

	if step.Expect.HasGraphAssertions() && !s.NeedsChroot() {
		fail("scenario %q step %q: graph assertions need a chroot", s.Name, step.Name)
	}

	refs := map[string][]string{
		"installed":     step.Expect.Installed,
		"not_installed": step.Expect.NotInstalled,
		"versions":      step.Expect.Versions,
	}
	for field, list := range refs {
		for _, ref := range list {
			if _, err := s.ResolveName(ref); err != nil {
				fail("scenario %q step %q: %s: %v", s.Name, step.Name, field, err)
			}
		}
	}
}

// ValidateSet validates every scenario and flags duplicate names across
// the set.
func ValidateSet(scenarios []*Scenario) []error {
	var problems []error

	byName := map[string]string{}
	for _, s := range scenarios {
		problems = append(problems, Validate(s)...)
		if other, ok := byName[s.Name]; ok {
			problems = append(problems, fmt.Errorf("scenario %q defined in both %s and %s", s.Name, other, s.SourceFile))
			continue
		}
		byName[s.Name] = s.SourceFile
	}
	return problems
}
