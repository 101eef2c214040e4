// Package storage resolves where uploads and generated meshes live on disk.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cadgen/assets"
)

var ErrInvalidOutputPath = errors.New("path does not name a file in the output directory")

const meshExt = ".stl"

// Paths is the single place that knows the upload and output directories.
// Handlers and services receive it instead of touching fixed directory names.
type Paths struct {
	uploadDir string
	outputDir string
}

func New(uploadDir, outputDir string) *Paths {
	return &Paths{
		uploadDir: filepath.Clean(uploadDir),
		outputDir: filepath.Clean(outputDir),
	}
}

func (p *Paths) UploadDir() string { return p.uploadDir }
func (p *Paths) OutputDir() string { return p.outputDir }

func (p *Paths) EnsureUploadDir() error {
	if err := os.MkdirAll(p.uploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir failed: %w", err)
	}
	return nil
}

func (p *Paths) EnsureOutputDir() error {
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir failed: %w", err)
	}
	return nil
}

// UploadPath is <upload_dir>/<filename>. The filename is used as given.
func (p *Paths) UploadPath(filename string) string {
	return filepath.Join(p.uploadDir, filename)
}

// OutputPath is <output_dir>/<name>.stl. Separators in name are flattened to
// underscores so a description cannot point outside the output directory.
func (p *Paths) OutputPath(name string) string {
	flat := strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	if flat == "." || flat == ".." {
		flat = strings.Repeat("_", len(flat))
	}
	return filepath.Join(p.outputDir, flat+meshExt)
}

// ResolveOutput maps a path relative to the output directory to a file path,
// refusing anything that escapes it.
func (p *Paths) ResolveOutput(rel string) (string, error) {
	full := filepath.Join(p.outputDir, filepath.Clean("/"+rel))
	if r, err := filepath.Rel(p.outputDir, full); err != nil || r == "." || strings.HasPrefix(r, "..") {
		return "", ErrInvalidOutputPath
	}
	return full, nil
}

// ResolveAsset maps a preview asset setting to a readable mesh file. A path that
// exists on disk is used as is. Otherwise the bundled asset with the same base
// name is written to <output_dir>/assets/ and that copy is returned.
func (p *Paths) ResolveAsset(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	data, err := assets.Read(name)
	if err != nil {
		return "", fmt.Errorf("preview asset %q: %w", name, err)
	}
	dir := filepath.Join(p.outputDir, "assets")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create asset dir failed: %w", err)
	}
	dst := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write asset failed: %w", err)
	}
	return dst, nil
}

// Writable reports whether dir exists (or can be created) and accepts a file.
func Writable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
