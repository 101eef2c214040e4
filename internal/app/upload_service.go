package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"cadgen/internal/metrics"
	"cadgen/internal/model"
)

type UploadedFile struct {
	Filename string
	Data     []byte
}

type UploadService struct {
	paths   StoragePaths
	metrics *metrics.Collector
	logger  *zap.Logger
}

func NewUploadService(paths StoragePaths, collector *metrics.Collector, logger *zap.Logger) *UploadService {
	return &UploadService{
		paths:   paths,
		metrics: collector,
		logger:  logger.With(zap.String("component", "upload")),
	}
}

// Save writes every file verbatim to the upload directory, replacing any file of the
// same name, and returns the paths in input order. The first write error aborts.
func (s *UploadService) Save(ctx context.Context, files []UploadedFile) ([]string, error) {
	paths := make([]string, 0, len(files))
	if len(files) == 0 {
		return paths, nil
	}
	if err := s.paths.EnsureUploadDir(); err != nil {
		return nil, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := s.paths.UploadPath(f.Filename)
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return nil, fmt.Errorf("write upload %q failed: %w", f.Filename, err)
		}
		s.metrics.RecordUpload(int64(len(f.Data)))
		paths = append(paths, path)
	}

	s.logger.Info("saved uploads", zap.Int("count", len(paths)), zap.Strings("paths", paths))
	return paths, nil
}

// SaveForSession saves files and remembers them as the session's reference documents.
func (s *UploadService) SaveForSession(ctx context.Context, state *model.SessionState, files []UploadedFile) ([]string, error) {
	paths, err := s.Save(ctx, files)
	if err != nil {
		return nil, err
	}
	if len(paths) > 0 {
		state.AddUploads(paths...)
		state.SetFlash(model.FlashSuccess, fmt.Sprintf("%d file(s) uploaded.", len(paths)))
	}
	return paths, nil
}
