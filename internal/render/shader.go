package render

import (
	"math"

	"github.com/fogleman/fauxgl"
)

// heightShader lights both faces of every triangle and keeps the per-vertex colormap color.
type heightShader struct {
	matrix  fauxgl.Matrix
	light   fauxgl.Vector
	ambient float64
	diffuse float64
}

func newHeightShader(matrix fauxgl.Matrix, light fauxgl.Vector) *heightShader {
	return &heightShader{matrix: matrix, light: light, ambient: 0.35, diffuse: 0.65}
}

func (s *heightShader) Vertex(v fauxgl.Vertex) fauxgl.Vertex {
	v.Output = s.matrix.MulPositionW(v.Position)
	return v
}

func (s *heightShader) Fragment(v fauxgl.Vertex) fauxgl.Color {
	k := s.ambient + s.diffuse*math.Abs(v.Normal.Normalize().Dot(s.light))
	return fauxgl.Color{
		R: clamp(v.Color.R * k),
		G: clamp(v.Color.G * k),
		B: clamp(v.Color.B * k),
		A: 1,
	}
}

// viridis stops, low to high.
var stops = []fauxgl.Color{
	{R: 0.267, G: 0.005, B: 0.329, A: 1},
	{R: 0.229, G: 0.322, B: 0.546, A: 1},
	{R: 0.128, G: 0.567, B: 0.551, A: 1},
	{R: 0.369, G: 0.789, B: 0.383, A: 1},
	{R: 0.993, G: 0.906, B: 0.144, A: 1},
}

// colormap maps u in [0,1] onto the stops.
func colormap(u float64) fauxgl.Color {
	u = clamp(u)
	pos := u * float64(len(stops)-1)
	i := int(math.Floor(pos))
	if i >= len(stops)-1 {
		return stops[len(stops)-1]
	}
	t := pos - float64(i)
	a, b := stops[i], stops[i+1]
	return fauxgl.Color{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: 1,
	}
}

func clamp(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
