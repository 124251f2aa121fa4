package depgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGraph(t *testing.T, root, content string) {
	t.Helper()
	path := Path(root)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	graph, err := LoadFromRoot(t.TempDir())
	require.NoError(t, err)

	assert.True(t, graph.IsEmpty())
	assert.Empty(t, graph.InstalledPackages())
	assert.False(t, graph.Contains("tests::sys-apps/some-package"))
}

func TestLoadMalformedGraph(t *testing.T) {
	root := t.TempDir()
	writeGraph(t, root, "{not json")

	_, err := LoadFromRoot(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error parsing dependency graph")
}

func TestInstalledPackagesExcludesGroups(t *testing.T) {
	root := t.TempDir()
	writeGraph(t, root, `{
		"node_names": {
			"@root": 0,
			"tests::sys-apps/some-package": 1,
			"tests::sys-libs/some-library": 2
		}
	}`)

	graph, err := LoadFromRoot(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"tests::sys-apps/some-package",
		"tests::sys-libs/some-library",
	}, graph.InstalledPackages())
	assert.Equal(t, []string{"@root"}, graph.Groups())
	assert.False(t, graph.IsEmpty())
	assert.True(t, graph.Contains("tests::sys-apps/some-package"))
	assert.False(t, graph.Contains("tests::sys-apps/other-package"))
}

func TestInstalledVersions(t *testing.T) {
	root := t.TempDir()
	writeGraph(t, root, `{
		"node_names": {
			"@root": 0,
			"tests::sys-apps/some-package": 1
		},
		"nodes": {
			"0": {"name": "@root", "version": ""},
			"1": {"name": "tests::sys-apps/some-package", "version": "2.0.0"}
		}
	}`)

	graph, err := LoadFromRoot(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"tests::sys-apps/some-package#2.0.0"}, graph.InstalledVersions())
	assert.True(t, graph.ContainsVersion("tests::sys-apps/some-package#2.0.0"))
	assert.False(t, graph.ContainsVersion("tests::sys-apps/some-package#1.0.0"))
}

func TestPathLayout(t *testing.T) {
	assert.Equal(t, filepath.Join("/chroot", "var", "nest", "depgraph"), Path("/chroot"))
}
