// Package assets bundles the reference meshes shipped with the binary.
package assets

import (
	"embed"
	"errors"
	"io/fs"
	"path"
)

// Teapot is the reference preview mesh.
const Teapot = "teapot.stl"

var ErrUnknownAsset = errors.New("unknown bundled asset")

//go:embed *.stl
var files embed.FS

// Read returns a bundled asset by base name.
func Read(name string) ([]byte, error) {
	data, err := files.ReadFile(path.Base(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrUnknownAsset
	}
	return data, err
}

func Names() []string {
	entries, _ := files.ReadDir(".")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
