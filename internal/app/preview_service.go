package app

import (
	"time"

	"go.uber.org/zap"

	"cadgen/internal/metrics"
	"cadgen/internal/model"
	"cadgen/internal/render"
)

type PreviewService struct {
	renderer *render.Renderer
	paths    StoragePaths
	metrics  *metrics.Collector
	logger   *zap.Logger
}

func NewPreviewService(renderer *render.Renderer, paths StoragePaths, collector *metrics.Collector, logger *zap.Logger) *PreviewService {
	return &PreviewService{
		renderer: renderer,
		paths:    paths,
		metrics:  collector,
		logger:   logger.With(zap.String("component", "preview")),
	}
}

// Preview renders the file at path. Every failure comes back as ErrRenderFailed.
func (s *PreviewService) Preview(path string) (*render.Frame, error) {
	start := time.Now()
	frame, err := s.renderer.Guarded(path)
	s.metrics.RecordRender(err == nil, time.Since(start))
	return frame, err
}

// PreviewOutput renders a file named relative to the output directory.
func (s *PreviewService) PreviewOutput(rel string) (*render.Frame, error) {
	path, err := s.paths.ResolveOutput(rel)
	if err != nil {
		return nil, err
	}
	return s.Preview(path)
}

// PreviewPage renders what page last generated.
func (s *PreviewService) PreviewPage(state *model.SessionState, page model.PageID) (*render.Frame, error) {
	ps := state.Page(page)
	if !ps.Generated || ps.ViewPath == "" {
		return nil, ErrNotGenerated
	}
	return s.Preview(ps.ViewPath)
}
