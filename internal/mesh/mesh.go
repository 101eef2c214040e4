// Package mesh holds the polygon meshes the service emits, loads and normalizes.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/fogleman/fauxgl"
)

var (
	ErrMalformedPolygonList = errors.New("malformed polygon list")
	ErrEmptyMesh            = errors.New("mesh has no vertices")
	ErrDegenerateMesh       = errors.New("mesh has zero extent")
)

// Mesh is an indexed polygon mesh. Faces may have any vertex count >= 3.
// Scalars, when set, holds one value per vertex.
type Mesh struct {
	Vertices []fauxgl.Vector
	Faces    [][]int
	Scalars  []float64
}

// PlaceholderCube returns the unit cube shown for every request, whatever was asked for.
func PlaceholderCube() *Mesh {
	points := []fauxgl.Vector{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0}, // bottom
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1}, // top
	}
	list := []int{
		4, 0, 1, 2, 3,
		4, 4, 5, 6, 7,
		4, 0, 1, 5, 4,
		4, 1, 2, 6, 5,
		4, 2, 3, 7, 6,
		4, 3, 0, 4, 7,
	}
	m, err := FromPolygonList(points, list)
	if err != nil {
		panic(fmt.Sprintf("placeholder cube: %v", err))
	}
	return m
}

// FromPolygonList builds a mesh from points and a flat face list in which every face
// is prefixed by its vertex count, e.g. [4, 0, 1, 2, 3, 3, 0, 2, 4].
func FromPolygonList(points []fauxgl.Vector, list []int) (*Mesh, error) {
	m := &Mesh{Vertices: append([]fauxgl.Vector(nil), points...)}
	for i := 0; i < len(list); {
		n := list[i]
		if n < 3 {
			return nil, fmt.Errorf("%w: face at offset %d has %d vertices", ErrMalformedPolygonList, i, n)
		}
		if i+1+n > len(list) {
			return nil, fmt.Errorf("%w: face at offset %d is truncated", ErrMalformedPolygonList, i)
		}
		face := make([]int, n)
		for j := 0; j < n; j++ {
			idx := list[i+1+j]
			if idx < 0 || idx >= len(points) {
				return nil, fmt.Errorf("%w: vertex index %d out of range", ErrMalformedPolygonList, idx)
			}
			face[j] = idx
		}
		m.Faces = append(m.Faces, face)
		i += 1 + n
	}
	return m, nil
}

// PolygonList flattens the faces back into the count-prefixed convention.
func (m *Mesh) PolygonList() []int {
	var out []int
	for _, face := range m.Faces {
		out = append(out, len(face))
		out = append(out, face...)
	}
	return out
}

// Triangulate fans every face around its first vertex. A quad becomes two triangles.
func (m *Mesh) Triangulate() [][3]int {
	var tris [][3]int
	for _, face := range m.Faces {
		for j := 1; j+1 < len(face); j++ {
			tris = append(tris, [3]int{face[0], face[j], face[j+1]})
		}
	}
	return tris
}

func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Vertices: append([]fauxgl.Vector(nil), m.Vertices...),
		Faces:    make([][]int, len(m.Faces)),
	}
	for i, face := range m.Faces {
		out.Faces[i] = append([]int(nil), face...)
	}
	if m.Scalars != nil {
		out.Scalars = append([]float64(nil), m.Scalars...)
	}
	return out
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min fauxgl.Vector
	Max fauxgl.Vector
}

func (b Box) Size() fauxgl.Vector {
	return b.Max.Sub(b.Min)
}

func (b Box) Center() fauxgl.Vector {
	return b.Min.Add(b.Max).MulScalar(0.5)
}

// Diagonal is the length of the box diagonal.
func (b Box) Diagonal() float64 {
	return b.Size().Length()
}

// MaxExtent is the largest side of the box.
func (b Box) MaxExtent() float64 {
	s := b.Size()
	return math.Max(s.X, math.Max(s.Y, s.Z))
}

func (m *Mesh) Bounds() (Box, error) {
	if len(m.Vertices) == 0 {
		return Box{}, ErrEmptyMesh
	}
	box := Box{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		box.Min = box.Min.Min(v)
		box.Max = box.Max.Max(v)
	}
	return box, nil
}

func (m *Mesh) Scale(factor float64) {
	for i := range m.Vertices {
		m.Vertices[i] = m.Vertices[i].MulScalar(factor)
	}
}

func (m *Mesh) Translate(offset fauxgl.Vector) {
	for i := range m.Vertices {
		m.Vertices[i] = m.Vertices[i].Add(offset)
	}
}

// Normalize scales by preScale, moves the bounding-box center to the origin and
// rescales so the largest extent is exactly 1. The returned box is the final bounds.
func (m *Mesh) Normalize(preScale float64) (Box, error) {
	if len(m.Vertices) == 0 {
		return Box{}, ErrEmptyMesh
	}
	m.Scale(preScale)

	box, err := m.Bounds()
	if err != nil {
		return Box{}, err
	}
	m.Translate(box.Center().MulScalar(-1))

	extent := box.MaxExtent()
	if extent <= 0 || math.IsNaN(extent) || math.IsInf(extent, 0) {
		return Box{}, ErrDegenerateMesh
	}
	m.Scale(1 / extent)
	return m.Bounds()
}

// AttachHeightScalars stores each vertex's Z coordinate as its scalar.
func (m *Mesh) AttachHeightScalars() {
	m.Scalars = make([]float64, len(m.Vertices))
	for i, v := range m.Vertices {
		m.Scalars[i] = v.Z
	}
}

// ScalarRange returns the min and max scalar, or zeros when none are attached.
func (m *Mesh) ScalarRange() (float64, float64) {
	if len(m.Scalars) == 0 {
		return 0, 0
	}
	lo, hi := m.Scalars[0], m.Scalars[0]
	for _, s := range m.Scalars[1:] {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}
	return lo, hi
}
