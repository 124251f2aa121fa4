package npf

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageNaming(t *testing.T) {
	pkg := New("sys-apps", "available-package", "1.0.0", KindVirtual)

	assert.Equal(t, "tests::sys-apps/available-package", pkg.FullName())
	assert.Equal(t, "tests::sys-apps/available-package#1.0.0", pkg.ID())
	assert.Equal(t, "available-package-1.0.0.nest", pkg.ArchiveName())
}

func TestManifestDefaults(t *testing.T) {
	pkg := New("sys-libs", "some-library", "2.0.0", KindVirtual)
	manifest := pkg.Manifest()

	assert.Equal(t, "some-library", manifest.Name)
	assert.Equal(t, "sys-libs", manifest.Category)
	assert.Equal(t, "2.0.0", manifest.Version)
	assert.Equal(t, KindVirtual, manifest.Kind)
	assert.Equal(t, DefaultWrapDate, manifest.WrapDate)
	assert.Equal(t, "A package", manifest.Metadata.Description)
	assert.Equal(t, DefaultMaintainer, manifest.Metadata.Maintainer)
	assert.Equal(t, []string{"gpl_v3"}, manifest.Metadata.Licenses)
	assert.Equal(t, DefaultUpstreamURL, manifest.Metadata.UpstreamURL)
	assert.Empty(t, manifest.Dependencies)
}

func TestDependencies(t *testing.T) {
	lib := New("sys-libs", "some-library", "1.0.0", KindVirtual)
	app := New("sys-apps", "some-package", "1.0.0", KindVirtual).
		WithDependency(lib, "1.0.0")

	assert.Equal(t, map[string]string{"tests::sys-libs/some-library": "1.0.0"}, app.Dependencies)

	// Self cycles are representable
	lib.WithDependency(lib, "1.0.0")
	assert.Equal(t, "1.0.0", lib.Dependencies[lib.FullName()])
}

// readArchive returns the entries of a .nest archive keyed by file name.
func readArchive(t *testing.T, path string) map[string][]byte {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	entries := map[string][]byte{}
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[hdr.Name] = data
	}
	return entries
}

func TestWriteArchiveVirtual(t *testing.T) {
	dir := t.TempDir()
	pkg := New("sys-apps", "available-package", "1.0.0", KindVirtual).
		WithDescription("A package").
		WithTags("test")

	path, err := pkg.WriteArchive(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "available-package-1.0.0.nest"), path)

	entries := readArchive(t, path)
	assert.Contains(t, entries, "manifest.toml")
	assert.NotContains(t, entries, "data.tar.gz")

	var manifest Manifest
	require.NoError(t, toml.Unmarshal(entries["manifest.toml"], &manifest))
	assert.Equal(t, "available-package", manifest.Name)
	assert.Equal(t, KindVirtual, manifest.Kind)
	assert.Equal(t, []string{"test"}, manifest.Metadata.Tags)
}

func TestWriteArchiveEffective(t *testing.T) {
	dir := t.TempDir()
	dep := New("sys-libs", "some-library", "1.0.0", KindVirtual)
	pkg := New("sys-apps", "some-package", "1.0.0", KindEffective).
		WithDependency(dep, "=1.0.0").
		WithFile("usr/bin/some-package", "#!/bin/sh\n")

	path, err := pkg.WriteArchive(dir)
	require.NoError(t, err)

	entries := readArchive(t, path)
	require.Contains(t, entries, "manifest.toml")
	require.Contains(t, entries, "data.tar.gz")

	var manifest Manifest
	require.NoError(t, toml.Unmarshal(entries["manifest.toml"], &manifest))
	assert.Equal(t, map[string]string{"tests::sys-libs/some-library": "=1.0.0"}, manifest.Dependencies)

	// The payload must itself be a valid gzip-compressed tarball
	gz, err := gzip.NewReader(bytes.NewReader(entries["data.tar.gz"]))
	require.NoError(t, err)
	inner := tar.NewReader(gz)
	hdr, err := inner.Next()
	require.NoError(t, err)
	assert.Equal(t, "usr/bin/some-package", hdr.Name)
	content, err := io.ReadAll(inner)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\n", string(content))
	_, err = inner.Next()
	assert.Equal(t, io.EOF, err)
}

func TestWriteArchiveEmptyEffectivePayload(t *testing.T) {
	dir := t.TempDir()
	pkg := New("sys-apps", "bare", "1.0.0", KindEffective)

	path, err := pkg.WriteArchive(dir)
	require.NoError(t, err)

	entries := readArchive(t, path)
	require.Contains(t, entries, "data.tar.gz")

	gz, err := gzip.NewReader(bytes.NewReader(entries["data.tar.gz"]))
	require.NoError(t, err)
	inner := tar.NewReader(gz)
	_, err = inner.Next()
	assert.Equal(t, io.EOF, err)
}

func TestWriteArchiveInstructions(t *testing.T) {
	dir := t.TempDir()
	pkg := New("sys-apps", "scripted", "1.0.0", KindEffective).
		WithInstructions("#!/bin/sh\necho configured\n")

	path, err := pkg.WriteArchive(dir)
	require.NoError(t, err)

	entries := readArchive(t, path)
	assert.Equal(t, "#!/bin/sh\necho configured\n", string(entries["instructions.sh"]))
}

func TestWriteArchiveRejectsFilesOnVirtual(t *testing.T) {
	dir := t.TempDir()
	pkg := New("sys-apps", "broken", "1.0.0", KindVirtual).
		WithFile("etc/motd", "hello")

	_, err := pkg.WriteArchive(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "only effective packages can carry files")
}

func TestPublishLayout(t *testing.T) {
	dir := t.TempDir()
	lib := New("sys-libs", "some-library", "1.0.0", KindVirtual)
	app := New("sys-apps", "some-package", "2.1.0", KindVirtual)

	require.NoError(t, Publish(dir, lib, app))

	assert.FileExists(t, filepath.Join(dir, "sys-libs", "some-library", "some-library-1.0.0.nest"))
	assert.FileExists(t, filepath.Join(dir, "sys-apps", "some-package", "some-package-2.1.0.nest"))
}

func TestRepositoryConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rc := DefaultRepositoryConfig()
	require.NoError(t, rc.WriteTo(dir))

	data, err := os.ReadFile(filepath.Join(dir, "Repository.toml"))
	require.NoError(t, err)

	var loaded RepositoryConfig
	require.NoError(t, toml.Unmarshal(data, &loaded))
	assert.Equal(t, "tests", loaded.Name)
	assert.Equal(t, "./packages/", loaded.PackageDir)
	assert.Equal(t, "./cache/", loaded.CacheDir)
	assert.Len(t, loaded.Links, 4)
	assert.True(t, loaded.Links[0].Active)
	assert.False(t, loaded.Links[1].Active)
}
