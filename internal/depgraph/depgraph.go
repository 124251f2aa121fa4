// Package depgraph reads the dependency graph nest persists inside a
// target filesystem. The graph is the ground truth for install and
// uninstall assertions: a package counts as installed exactly when its
// full name appears among the graph's node names.
package depgraph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RelativePath is the location of the serialized graph below a target root.
const RelativePath = "var/nest/depgraph"

// Node is a single entry of the graph with its resolved version.
type Node struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Graph is the deserialized dependency graph of a target filesystem.
//
// NodeNames maps full package names (and "@"-prefixed group names such
// as "@root") to node identifiers. Nodes carries per-node version
// details when present; older graphs may omit it.
type Graph struct {
	NodeNames map[string]uint64 `json:"node_names"`
	Nodes     map[string]Node   `json:"nodes,omitempty"`
}

// Path returns the graph location for the given target root.
func Path(root string) string {
	return filepath.Join(root, filepath.FromSlash(RelativePath))
}

// Load reads the graph stored at path. A missing file yields an empty
// graph: nest only writes the file once a transaction touches it, so a
// fresh target legitimately has none.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Graph{NodeNames: map[string]uint64{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading dependency graph: %w", err)
	}

	var graph Graph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, fmt.Errorf("error parsing dependency graph %s: %w", path, err)
	}
	if graph.NodeNames == nil {
		graph.NodeNames = map[string]uint64{}
	}
	return &graph, nil
}

// LoadFromRoot reads the graph of the target rooted at root.
func LoadFromRoot(root string) (*Graph, error) {
	return Load(Path(root))
}

// InstalledPackages returns the full names of all installed packages,
// sorted. Group nodes are excluded.
func (g *Graph) InstalledPackages() []string {
	var names []string
	for name := range g.NodeNames {
		if !strings.HasPrefix(name, "@") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Groups returns the group node names ("@root" and friends), sorted.
func (g *Graph) Groups() []string {
	var names []string
	for name := range g.NodeNames {
		if strings.HasPrefix(name, "@") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Contains reports whether the package with the given full name is
// installed.
func (g *Graph) Contains(fullName string) bool {
	_, ok := g.NodeNames[fullName]
	return ok
}

// InstalledVersions returns "name#version" identifiers for every node
// that carries version details, sorted. Graphs without node details
// yield an empty slice.
func (g *Graph) InstalledVersions() []string {
	var ids []string
	for _, node := range g.Nodes {
		if strings.HasPrefix(node.Name, "@") {
			continue
		}
		ids = append(ids, fmt.Sprintf("%s#%s", node.Name, node.Version))
	}
	sort.Strings(ids)
	return ids
}

// ContainsVersion reports whether the exact "name#version" identifier
// is installed.
func (g *Graph) ContainsVersion(id string) bool {
	for _, installed := range g.InstalledVersions() {
		if installed == id {
			return true
		}
	}
	return false
}

// IsEmpty reports whether no packages are installed. Group nodes do not
// count: a graph holding only "@root" is empty.
func (g *Graph) IsEmpty() bool {
	return len(g.InstalledPackages()) == 0
}
