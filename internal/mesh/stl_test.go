package mesh

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_BinaryHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, PlaceholderCube(), "cube", true))

	data := buf.Bytes()
	// 80-byte header, uint32 count, 50 bytes per triangle.
	assert.Len(t, data, 80+4+12*50)
	assert.False(t, bytes.HasPrefix(data, []byte("solid")))
}

func TestEncode_ASCIIHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, PlaceholderCube(), "cube", false))

	data := buf.Bytes()
	assert.True(t, bytes.HasPrefix(data, []byte("solid")))
	assert.Contains(t, string(data), "endsolid")
	assert.Equal(t, 12, bytes.Count(data, []byte("endfacet")))
}

func TestRoundTrip(t *testing.T) {
	for _, binary := range []bool{true, false} {
		name := "ascii"
		if binary {
			name = "binary"
		}
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cube.stl")
			built := PlaceholderCube()
			require.NoError(t, WriteFile(path, built, "cube", binary))

			loaded, err := ReadFile(path)
			require.NoError(t, err)
			assert.Len(t, loaded.Vertices, len(built.Vertices))
			assert.Len(t, loaded.Faces, len(built.Triangulate()))

			box, err := loaded.Bounds()
			require.NoError(t, err)
			assert.InDelta(t, 1.0, box.MaxExtent(), 1e-6)
		})
	}
}

// streamOnly hides Seek so Decode sees a plain reader, as with a request body.
type streamOnly struct{ io.Reader }

func TestDecode_StreamReader(t *testing.T) {
	for _, tc := range []struct {
		name   string
		binary bool
	}{
		{"cube", true},
		{"cube", false},
		{"my cube", false},
		{"gear é ø", false},
		{"  padded  ", false},
	} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, PlaceholderCube(), tc.name, tc.binary))

		loaded, err := Decode(streamOnly{&buf})
		require.NoError(t, err, "name %q binary %v", tc.name, tc.binary)
		assert.Len(t, loaded.Vertices, 8)
		assert.Len(t, loaded.Faces, 12)
	}
}

func TestWriteFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.stl")
	require.NoError(t, WriteFile(path, PlaceholderCube(), "cube", false))
	require.NoError(t, WriteFile(path, PlaceholderCube(), "cube", true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, bytes.HasPrefix(data, []byte("solid")))
}

func TestReadFile_Errors(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.stl"))
	require.Error(t, err)

	corrupt := filepath.Join(t.TempDir(), "corrupt.stl")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a mesh"), 0o644))
	_, err = ReadFile(corrupt)
	require.Error(t, err)
}
