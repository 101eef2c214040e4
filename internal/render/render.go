// Package render draws the viewport image for an exported mesh.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/fogleman/fauxgl"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"cadgen/internal/mesh"
)

var ErrRenderFailed = errors.New("error rendering stl file")

const (
	fovy = 30
	near = 0.01
	far  = 100
)

var background = fauxgl.Color{R: 0.97, G: 0.97, B: 0.98, A: 1}

type Config struct {
	Width       int
	Height      int
	Supersample int
	PreScale    float64
}

// Camera is a look-at pose. Diagonal is the bounding-box diagonal it was derived from.
type Camera struct {
	Eye      fauxgl.Vector
	Target   fauxgl.Vector
	Up       fauxgl.Vector
	Diagonal float64
}

// Frame is one encoded viewport image plus what went into it.
type Frame struct {
	PNG       []byte
	Width     int
	Height    int
	Camera    Camera
	Bounds    mesh.Box
	ScalarMin float64
	ScalarMax float64
	Vertices  int
	Triangles int
	Elapsed   time.Duration
}

type Renderer struct {
	cfg    Config
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Renderer {
	if cfg.Supersample <= 0 {
		cfg.Supersample = 1
	}
	if cfg.PreScale <= 0 {
		cfg.PreScale = 1
	}
	return &Renderer{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "render")),
	}
}

// PlaceCamera aims at the box center from center + 2*diagonal on every axis, with +Z up.
func PlaceCamera(box mesh.Box) Camera {
	center := box.Center()
	d := box.Diagonal()
	return Camera{
		Eye:      center.Add(fauxgl.Vector{X: 2 * d, Y: 2 * d, Z: 2 * d}),
		Target:   center,
		Up:       fauxgl.Vector{Z: 1},
		Diagonal: d,
	}
}

// Prepare loads the mesh at path and normalizes it for display: pre-scale, recenter,
// unit largest extent, then height scalars.
func (r *Renderer) Prepare(path string) (*mesh.Mesh, mesh.Box, error) {
	m, err := mesh.ReadFile(path)
	if err != nil {
		return nil, mesh.Box{}, err
	}
	box, err := m.Normalize(r.cfg.PreScale)
	if err != nil {
		return nil, mesh.Box{}, err
	}
	m.AttachHeightScalars()
	return m, box, nil
}

// Render loads, normalizes and draws the mesh at path. Faults are returned, not recovered.
func (r *Renderer) Render(path string) (*Frame, error) {
	start := time.Now()
	m, box, err := r.Prepare(path)
	if err != nil {
		return nil, err
	}

	cam := PlaceCamera(box)
	img := r.rasterize(m, cam)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png failed: %w", err)
	}

	lo, hi := m.ScalarRange()
	frame := &Frame{
		PNG:       buf.Bytes(),
		Width:     r.cfg.Width,
		Height:    r.cfg.Height,
		Camera:    cam,
		Bounds:    box,
		ScalarMin: lo,
		ScalarMax: hi,
		Vertices:  len(m.Vertices),
		Triangles: len(m.Triangulate()),
		Elapsed:   time.Since(start),
	}
	r.logger.Debug("rendered viewport",
		zap.String("path", path),
		zap.Int("triangles", frame.Triangles),
		zap.Duration("elapsed", frame.Elapsed),
	)
	return frame, nil
}

// Guarded runs Render and turns any error or panic into an ErrRenderFailed error
// whose text is fit to show the user.
func (r *Renderer) Guarded(path string) (frame *Frame, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("render panicked", zap.String("path", path), zap.Any("panic", p))
			frame = nil
			err = fmt.Errorf("%w: %v", ErrRenderFailed, p)
		}
	}()

	frame, err = r.Render(path)
	if err != nil {
		r.logger.Warn("render failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	return frame, nil
}

func (r *Renderer) rasterize(m *mesh.Mesh, cam Camera) image.Image {
	ss := r.cfg.Supersample
	w, h := r.cfg.Width*ss, r.cfg.Height*ss

	ctx := fauxgl.NewContext(w, h)
	ctx.ClearColorBufferWith(background)
	ctx.ClearDepthBuffer()
	ctx.Cull = fauxgl.CullNone

	aspect := float64(w) / float64(h)
	matrix := fauxgl.LookAt(cam.Eye, cam.Target, cam.Up).Perspective(fovy, aspect, near, far)
	ctx.Shader = newHeightShader(matrix, cam.Eye.Sub(cam.Target).Normalize())
	ctx.DrawMesh(fauxgl.NewTriangleMesh(triangles(m)))

	if ss == 1 {
		return ctx.Image()
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.cfg.Width, r.cfg.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), ctx.Image(), ctx.Image().Bounds(), draw.Over, nil)
	return dst
}

// triangles builds flat-shaded fauxgl triangles colored by the normalized scalar.
func triangles(m *mesh.Mesh) []*fauxgl.Triangle {
	lo, hi := m.ScalarRange()
	span := hi - lo

	tris := m.Triangulate()
	out := make([]*fauxgl.Triangle, 0, len(tris))
	for _, t := range tris {
		a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Length() == 0 {
			continue
		}
		n = n.Normalize()

		var vs [3]fauxgl.Vertex
		for i, idx := range t {
			var u float64
			if span > 0 && len(m.Scalars) == len(m.Vertices) {
				u = (m.Scalars[idx] - lo) / span
			}
			vs[i] = fauxgl.Vertex{
				Position: m.Vertices[idx],
				Normal:   n,
				Color:    colormap(u),
			}
		}
		out = append(out, &fauxgl.Triangle{V1: vs[0], V2: vs[1], V3: vs[2]})
	}
	return out
}
