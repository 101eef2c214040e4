package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	root := t.TempDir()
	p := New(filepath.Join(root, "uploaded_files"), filepath.Join(root, "output"))

	assert.Equal(t, filepath.Join(root, "uploaded_files", "datasheet.pdf"), p.UploadPath("datasheet.pdf"))
	assert.Equal(t, filepath.Join(root, "output", "bracket_binary.stl"), p.OutputPath("bracket_binary"))
	assert.Equal(t, filepath.Join(root, "output", "a_b_c.stl"), p.OutputPath("a/b/c"))
	assert.Equal(t, filepath.Join(root, "output", ".._.._etc.stl"), p.OutputPath("../../etc"))
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	p := New(filepath.Join(root, "in", "nested"), filepath.Join(root, "out"))

	require.NoError(t, p.EnsureUploadDir())
	require.NoError(t, p.EnsureOutputDir())
	require.NoError(t, p.EnsureUploadDir())

	for _, dir := range []string{p.UploadDir(), p.OutputDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestResolveOutput(t *testing.T) {
	root := t.TempDir()
	p := New(filepath.Join(root, "uploaded_files"), filepath.Join(root, "output"))

	got, err := p.ResolveOutput("cube_ascii.stl")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "output", "cube_ascii.stl"), got)

	got, err = p.ResolveOutput("../uploaded_files/secret.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "output", "uploaded_files", "secret.pdf"), got)

	_, err = p.ResolveOutput("")
	require.ErrorIs(t, err, ErrInvalidOutputPath)
}

func TestWritable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "probe")
	require.NoError(t, Writable(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestResolveAsset(t *testing.T) {
	root := t.TempDir()
	p := New(filepath.Join(root, "uploaded_files"), filepath.Join(root, "output"))

	got, err := p.ResolveAsset("assets/teapot.stl")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "output", "assets", "teapot.stl"), got)
	info, err := os.Stat(got)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(84))

	local := filepath.Join(root, "mine.stl")
	require.NoError(t, os.WriteFile(local, []byte("solid x\nendsolid x\n"), 0o644))
	got, err = p.ResolveAsset(local)
	require.NoError(t, err)
	assert.Equal(t, local, got)

	_, err = p.ResolveAsset("dragon.stl")
	require.Error(t, err)
}
