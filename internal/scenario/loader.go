package scenario

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/doom/nest/pkg/logging"
)

// DefaultDir is where scenarios are looked up when nothing else is
// configured.
const DefaultDir = "scenarios"

// Load reads and normalizes a single scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("error parsing scenario %s: %w", path, err)
	}
	s.SourceFile = path
	s.Normalize()
	return &s, nil
}

// LoadPath loads scenarios from path, which may be a single scenario file
// or a directory tree of them.
func LoadPath(path string) ([]*Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error reading scenario path: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	return []*Scenario{s}, nil
}

// LoadDir walks dir and loads every .yaml/.yml file, one scenario per
// file, in lexical order.
func LoadDir(dir string) ([]*Scenario, error) {
	var scenarios []*Scenario

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
			return nil
		}
		s, err := Load(path)
		if err != nil {
			return fmt.Errorf("loading scenario %s: %w", path, err)
		}
		scenarios = append(scenarios, s)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Debug("scenario", "Loaded %d scenarios from %s", len(scenarios), dir)
	return scenarios, nil
}

// Filter returns the scenarios matching the given selectors. A scenario
// matches when its name is among names, or it carries at least one of
// tags. Empty selectors match everything.
func Filter(scenarios []*Scenario, names []string, tags []string) []*Scenario {
	if len(names) == 0 && len(tags) == 0 {
		return scenarios
	}

	wantName := map[string]bool{}
	for _, name := range names {
		wantName[name] = true
	}
	wantTag := map[string]bool{}
	for _, tag := range tags {
		wantTag[tag] = true
	}

	var matched []*Scenario
	for _, s := range scenarios {
		if wantName[s.Name] {
			matched = append(matched, s)
			continue
		}
		for _, tag := range s.Tags {
			if wantTag[tag] {
				matched = append(matched, s)
				break
			}
		}
	}
	return matched
}
