package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"cadgen/internal/assistant"
	"cadgen/internal/mesh"
	"cadgen/internal/metrics"
	"cadgen/internal/model"
)

const placeholderSummary = "A cube has been generated. Your description was ignored."

type GenerationConfig struct {
	Delay        time.Duration
	ModeSuffix   bool
	PreviewAsset string
}

// EventPublisher announces finished generations. Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event model.GenerationEvent) error
}

type GenerationService struct {
	paths     StoragePaths
	assistant assistant.Assistant
	publisher EventPublisher
	cfg       GenerationConfig
	metrics   *metrics.Collector
	logger    *zap.Logger
	sleep     func(time.Duration)
}

type GenerateInput struct {
	Page        model.PageID
	Description string
	Format      model.Format
	Documents   []string
}

type GenerateResult struct {
	BinaryPath        string `json:"binary_path,omitempty"`
	AsciiPath         string `json:"ascii_path,omitempty"`
	ViewPath          string `json:"view_path"`
	Summary           string `json:"summary"`
	AssistantResponse string `json:"assistant_response,omitempty"`
	Vertices          int    `json:"vertices"`
	Faces             int    `json:"faces"`
}

func NewGenerationService(
	paths StoragePaths,
	asst assistant.Assistant,
	cfg GenerationConfig,
	collector *metrics.Collector,
	logger *zap.Logger,
) *GenerationService {
	return &GenerationService{
		paths:     paths,
		assistant: asst,
		cfg:       cfg,
		metrics:   collector,
		logger:    logger.With(zap.String("component", "generation")),
		sleep:     time.Sleep,
	}
}

// SetPublisher enables generation events.
func (s *GenerationService) SetPublisher(p EventPublisher) {
	s.publisher = p
}

// Emit writes the placeholder cube to <output_dir>/<name>.stl and returns the path.
func (s *GenerationService) Emit(name string, binary bool) (string, error) {
	if err := s.paths.EnsureOutputDir(); err != nil {
		return "", err
	}
	path := s.paths.OutputPath(name)
	if err := mesh.WriteFile(path, mesh.PlaceholderCube(), name, binary); err != nil {
		return "", fmt.Errorf("emit %q failed: %w", path, err)
	}
	return path, nil
}

// Generate ignores the description beyond naming the output. A blank description is
// rejected before anything is written.
func (s *GenerationService) Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		s.metrics.RecordRejection(string(in.Page))
		return nil, ErrEmptyDescription
	}
	if in.Format == "" {
		in.Format = model.FormatBinary
	}

	s.sleep(s.cfg.Delay)

	res := &GenerateResult{Summary: placeholderSummary}
	if in.Format.WantsBinary() {
		path, err := s.Emit(s.outputName(in.Description, model.FormatBinary, in.Format), true)
		if err != nil {
			return nil, err
		}
		res.BinaryPath = path
		s.metrics.RecordGeneration(string(in.Page), string(model.FormatBinary))
	}
	if in.Format.WantsASCII() {
		path, err := s.Emit(s.outputName(in.Description, model.FormatASCII, in.Format), false)
		if err != nil {
			return nil, err
		}
		res.AsciiPath = path
		s.metrics.RecordGeneration(string(in.Page), string(model.FormatASCII))
	}

	switch {
	case s.cfg.PreviewAsset != "":
		res.ViewPath = s.cfg.PreviewAsset
	case res.BinaryPath != "":
		res.ViewPath = res.BinaryPath
	default:
		res.ViewPath = res.AsciiPath
	}

	cube := mesh.PlaceholderCube()
	res.Vertices, res.Faces = len(cube.Vertices), len(cube.Faces)

	if s.assistant != nil {
		reply, err := s.assistant.RetrieveAndGenerate(ctx, in.Description, in.Documents)
		if err != nil {
			return nil, fmt.Errorf("assistant %s failed: %w", s.assistant.Name(), err)
		}
		res.AssistantResponse = reply
	}

	s.publish(ctx, in, res)
	s.logger.Info("generated model",
		zap.String("page", string(in.Page)),
		zap.String("format", string(in.Format)),
		zap.String("binary_path", res.BinaryPath),
		zap.String("ascii_path", res.AsciiPath),
	)
	return res, nil
}

// GeneratePage runs Generate for page and records the outcome on the session, including
// the flash message the next page view shows.
// An empty format keeps the session's choice. A rejected request only sets the flash:
// the format, the active page and every page record stay as they were.
func (s *GenerationService) GeneratePage(ctx context.Context, state *model.SessionState, page model.PageID, description string, format model.Format) (*GenerateResult, error) {
	if format == "" {
		format = state.Format
	}
	res, err := s.Generate(ctx, GenerateInput{
		Page:        page,
		Description: description,
		Format:      format,
		Documents:   state.Uploads,
	})
	if err != nil {
		if errors.Is(err, ErrEmptyDescription) {
			state.SetFlash(model.FlashError, "Please provide a description of the model.")
		}
		return nil, err
	}

	state.Format = format
	state.SwitchPage(page)
	ps := state.Page(page)
	ps.MarkGenerated(res.BinaryPath, res.AsciiPath, res.ViewPath)
	ps.Description = description
	ps.Summary = res.Summary
	ps.AssistantResponse = res.AssistantResponse
	state.SetFlash(model.FlashSuccess, fmt.Sprintf("Model '%s' generated successfully!", description))
	return res, nil
}

func (s *GenerationService) publish(ctx context.Context, in GenerateInput, res *GenerateResult) {
	if s.publisher == nil {
		return
	}
	event := model.GenerationEvent{
		Page:        in.Page,
		Description: in.Description,
		Format:      in.Format,
		BinaryPath:  res.BinaryPath,
		AsciiPath:   res.AsciiPath,
		Documents:   len(in.Documents),
		CreatedAt:   time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish generation event failed", zap.Error(err))
	}
}

// outputName is the file stem for one encoding. Suffixes are forced when both
// encodings are written so the two files never collide.
func (s *GenerationService) outputName(description string, enc, requested model.Format) string {
	if !s.cfg.ModeSuffix && requested != model.FormatBoth {
		return description
	}
	return description + "_" + string(enc)
}
