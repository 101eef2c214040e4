package mesh

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/fogleman/fauxgl"
	"github.com/hschendel/stl"
)

// binaryHeader fills the 80-byte binary STL header. It must not start with "solid",
// or readers take the file for ASCII.
const binaryHeader = "cadgen binary stl"

// Encode writes the triangulated mesh as STL, binary or ASCII.
func Encode(w io.Writer, m *Mesh, name string, binary bool) error {
	solid := toSolid(m, name)
	solid.IsAscii = !binary
	if binary {
		solid.BinaryHeader = []byte(binaryHeader)
	}
	if err := solid.WriteAll(w); err != nil {
		return fmt.Errorf("write stl failed: %w", err)
	}
	return nil
}

// WriteFile creates or truncates path and encodes m into it.
func WriteFile(path string, m *Mesh, name string, binary bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create stl file failed: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := Encode(bw, m, name, binary); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush stl file failed: %w", err)
	}
	return f.Close()
}

// Decode reads binary or ASCII STL. Coincident corners are welded into shared vertices,
// so a triangulated cube comes back with 8 vertices and 12 faces.
// The codec seeks back after sniffing the encoding, so a plain reader is buffered first.
func Decode(r io.Reader) (*Mesh, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read stl failed: %w", err)
		}
		rs = bytes.NewReader(raw)
	}
	solid, err := stl.ReadAll(rs)
	if err != nil {
		return nil, fmt.Errorf("read stl failed: %w", err)
	}
	return fromSolid(solid), nil
}

func ReadFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stl file failed: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func toSolid(m *Mesh, name string) *stl.Solid {
	tris := m.Triangulate()
	solid := &stl.Solid{
		Name:      name,
		Triangles: make([]stl.Triangle, 0, len(tris)),
	}
	for _, t := range tris {
		a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		solid.Triangles = append(solid.Triangles, stl.Triangle{
			Normal:   toVec3(faceNormal(a, b, c)),
			Vertices: [3]stl.Vec3{toVec3(a), toVec3(b), toVec3(c)},
		})
	}
	return solid
}

func fromSolid(solid *stl.Solid) *Mesh {
	m := &Mesh{}
	index := make(map[stl.Vec3]int)
	for _, t := range solid.Triangles {
		face := make([]int, 3)
		for i, v := range t.Vertices {
			idx, ok := index[v]
			if !ok {
				idx = len(m.Vertices)
				index[v] = idx
				m.Vertices = append(m.Vertices, fauxgl.Vector{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])})
			}
			face[i] = idx
		}
		m.Faces = append(m.Faces, face)
	}
	return m
}

func faceNormal(a, b, c fauxgl.Vector) fauxgl.Vector {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Length() == 0 {
		return n
	}
	return n.Normalize()
}

func toVec3(v fauxgl.Vector) stl.Vec3 {
	return stl.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}
