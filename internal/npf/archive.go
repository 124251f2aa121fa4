package npf

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// WriteArchive writes the package's NPF into dir and returns the archive
// path. The directory is created if needed.
func (p *Package) WriteArchive(dir string) (string, error) {
	if p.Kind != KindEffective && len(p.Files) > 0 {
		return "", fmt.Errorf("package %s: only effective packages can carry files", p.FullName())
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create package directory: %w", err)
	}

	manifest, err := toml.Marshal(p.Manifest())
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest for %s: %w", p.FullName(), err)
	}

	archivePath := filepath.Join(dir, p.ArchiveName())
	f, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()

	tw := tar.NewWriter(f)

	if err := writeTarEntry(tw, "manifest.toml", manifest); err != nil {
		return "", err
	}

	if p.Kind == KindEffective {
		data, err := p.buildDataArchive()
		if err != nil {
			return "", err
		}
		if err := writeTarEntry(tw, "data.tar.gz", data); err != nil {
			return "", err
		}
	}

	if p.Instructions != "" {
		if err := writeTarEntry(tw, "instructions.sh", []byte(p.Instructions)); err != nil {
			return "", err
		}
	}

	if err := tw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}
	return archivePath, nil
}

// buildDataArchive renders the gzip-compressed payload tarball. An
// effective package without files still gets an empty, valid data.tar.gz.
func (p *Package) buildDataArchive() ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, file := range p.Files {
		if err := writeTarEntry(tw, file.Path, []byte(file.Content)); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize data archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress data archive: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTarEntry(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("failed to write tar entry %s: %w", name, err)
	}
	return nil
}
