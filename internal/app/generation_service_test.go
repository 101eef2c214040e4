package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"cadgen/internal/assistant"
	"cadgen/internal/mesh"
	"cadgen/internal/model"
	"cadgen/internal/storage"
)

type recordingSleep struct {
	calls []time.Duration
}

func (r *recordingSleep) sleep(d time.Duration) { r.calls = append(r.calls, d) }

func newTestGeneration(t *testing.T, cfg GenerationConfig) (*GenerationService, *storage.Paths, *recordingSleep) {
	t.Helper()
	paths := newTestPaths(t)
	svc := NewGenerationService(paths, assistant.NewStub(), cfg, nil, nop())
	rec := &recordingSleep{}
	svc.sleep = rec.sleep
	return svc, paths, rec
}

func TestGenerateRejectsBlankDescription(t *testing.T) {
	for _, desc := range []string{"", "   ", "\t\n"} {
		svc, paths, rec := newTestGeneration(t, GenerationConfig{Delay: 2 * time.Second, ModeSuffix: true})

		res, err := svc.Generate(context.Background(), GenerateInput{Page: model.PageGenerate, Description: desc, Format: model.FormatBinary})
		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrEmptyDescription)
		assert.Empty(t, rec.calls, "rejection must not wait")

		_, statErr := os.Stat(paths.OutputDir())
		assert.True(t, os.IsNotExist(statErr), "rejection must not touch the output directory")
	}
}

func TestGenerateBinary(t *testing.T) {
	svc, paths, rec := newTestGeneration(t, GenerationConfig{Delay: 2 * time.Second, ModeSuffix: true})

	res, err := svc.Generate(context.Background(), GenerateInput{
		Page:        model.PageGenerate,
		Description: "gear",
		Format:      model.FormatBinary,
		Documents:   []string{"a.pdf", "b.pdf"},
	})
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{2 * time.Second}, rec.calls)
	assert.Equal(t, filepath.Join(paths.OutputDir(), "gear_binary.stl"), res.BinaryPath)
	assert.Empty(t, res.AsciiPath)
	assert.Equal(t, res.BinaryPath, res.ViewPath)
	assert.Equal(t, 8, res.Vertices)
	assert.Equal(t, 6, res.Faces)
	assert.Equal(t, "Generated a response for 'gear' using 2 document(s).", res.AssistantResponse)

	raw, err := os.ReadFile(res.BinaryPath)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(string(raw), "solid"))
	assert.Len(t, raw, 84+12*50)
}

func TestGenerateASCII(t *testing.T) {
	svc, paths, _ := newTestGeneration(t, GenerationConfig{ModeSuffix: true})

	res, err := svc.Generate(context.Background(), GenerateInput{Page: model.PageGenerate, Description: "bracket", Format: model.FormatASCII})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.OutputDir(), "bracket_ascii.stl"), res.AsciiPath)
	assert.Equal(t, res.AsciiPath, res.ViewPath)

	raw, err := os.ReadFile(res.AsciiPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "solid"))
}

func TestGenerateBothAlwaysSuffixes(t *testing.T) {
	svc, paths, _ := newTestGeneration(t, GenerationConfig{ModeSuffix: false})

	res, err := svc.Generate(context.Background(), GenerateInput{Page: model.PageRefine, Description: "hinge", Format: model.FormatBoth})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.OutputDir(), "hinge_binary.stl"), res.BinaryPath)
	assert.Equal(t, filepath.Join(paths.OutputDir(), "hinge_ascii.stl"), res.AsciiPath)
	assert.Equal(t, res.BinaryPath, res.ViewPath)
}

func TestGenerateWithoutModeSuffix(t *testing.T) {
	svc, paths, _ := newTestGeneration(t, GenerationConfig{ModeSuffix: false})

	res, err := svc.Generate(context.Background(), GenerateInput{Page: model.PageGenerate, Description: "cube", Format: model.FormatASCII})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.OutputDir(), "cube.stl"), res.AsciiPath)
}

func TestGeneratePreviewAsset(t *testing.T) {
	svc, _, _ := newTestGeneration(t, GenerationConfig{ModeSuffix: true, PreviewAsset: "assets/teapot.stl"})

	res, err := svc.Generate(context.Background(), GenerateInput{Page: model.PageGenerate, Description: "cup", Format: model.FormatBinary})
	require.NoError(t, err)
	assert.Equal(t, "assets/teapot.stl", res.ViewPath)
}

func TestGenerateSameDescriptionOverwrites(t *testing.T) {
	svc, paths, _ := newTestGeneration(t, GenerationConfig{ModeSuffix: true})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.Generate(ctx, GenerateInput{Page: model.PageGenerate, Description: "gear", Format: model.FormatBinary})
		require.NoError(t, err)
	}
	entries, err := os.ReadDir(paths.OutputDir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGenerateOutputFault(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "output")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	svc := NewGenerationService(storage.New(filepath.Join(root, "up"), blocker), nil, GenerationConfig{}, nil, nop())
	svc.sleep = func(time.Duration) {}

	_, err := svc.Generate(context.Background(), GenerateInput{Page: model.PageGenerate, Description: "gear"})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmptyDescription))
}

func TestEmitRoundTrip(t *testing.T) {
	svc, _, _ := newTestGeneration(t, GenerationConfig{})

	for _, binary := range []bool{true, false} {
		path, err := svc.Emit("roundtrip", binary)
		require.NoError(t, err)

		m, err := mesh.ReadFile(path)
		require.NoError(t, err)
		assert.Len(t, m.Vertices, 8)
		assert.Len(t, m.Faces, 12)
	}
}

func TestGeneratedTopologyIgnoresDescription(t *testing.T) {
	svc, _, _ := newTestGeneration(t, GenerationConfig{ModeSuffix: true})

	rapid.Check(t, func(rt *rapid.T) {
		desc := rapid.StringMatching(`[a-z][a-z0-9 ]{0,20}`).Draw(rt, "description")
		res, err := svc.Generate(context.Background(), GenerateInput{Page: model.PageGenerate, Description: desc, Format: model.FormatBinary})
		if err != nil {
			rt.Fatalf("generate %q: %v", desc, err)
		}
		m, err := mesh.ReadFile(res.BinaryPath)
		if err != nil {
			rt.Fatalf("read back %q: %v", res.BinaryPath, err)
		}
		if len(m.Vertices) != 8 || len(m.Faces) != 12 {
			rt.Fatalf("description %q changed topology: %d vertices, %d faces", desc, len(m.Vertices), len(m.Faces))
		}
	})
}

func TestGeneratePage(t *testing.T) {
	svc, _, _ := newTestGeneration(t, GenerationConfig{ModeSuffix: true})
	state := model.NewSessionState("s1", model.FormatBoth)
	state.AddUploads("uploaded_files/a.pdf")

	_, err := svc.GeneratePage(context.Background(), state, model.PageGenerate, "  ", "")
	assert.ErrorIs(t, err, ErrEmptyDescription)
	assert.False(t, state.Page(model.PageGenerate).Generated)
	flash := state.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Please provide a description of the model.", flash.Text)

	_, err = svc.GeneratePage(context.Background(), state, model.PageGenerate, "gear", "")
	require.NoError(t, err)
	ps := state.Page(model.PageGenerate)
	assert.True(t, ps.Generated)
	_, ok := ps.PathFor(model.FormatBinary)
	assert.True(t, ok)
	_, ok = ps.PathFor(model.FormatASCII)
	assert.True(t, ok)
	assert.Equal(t, "Generated a response for 'gear' using 1 document(s).", ps.AssistantResponse)
	assert.Equal(t, "Model 'gear' generated successfully!", state.PopFlash().Text)
}

func TestGeneratePageRejectionLeavesStateAlone(t *testing.T) {
	svc, _, _ := newTestGeneration(t, GenerationConfig{ModeSuffix: true})
	state := model.NewSessionState("s1", model.FormatBinary)
	ctx := context.Background()

	_, err := svc.GeneratePage(ctx, state, model.PageGenerate, "gear", "")
	require.NoError(t, err)
	state.PopFlash()
	before := *state.Page(model.PageGenerate)

	_, err = svc.GeneratePage(ctx, state, model.PageRefine, "", model.FormatASCII)
	assert.ErrorIs(t, err, ErrEmptyDescription)
	assert.Equal(t, model.FormatBinary, state.Format)
	assert.Equal(t, model.PageGenerate, state.ActivePage)
	assert.Equal(t, before, *state.Page(model.PageGenerate))
	assert.False(t, state.Page(model.PageRefine).Generated)

	_, err = svc.GeneratePage(ctx, state, model.PageRefine, "lid", model.FormatASCII)
	require.NoError(t, err)
	assert.Equal(t, model.FormatASCII, state.Format)
	assert.Equal(t, model.PageRefine, state.ActivePage)
	assert.False(t, state.Page(model.PageGenerate).Generated, "leaving a page resets it")
	_, ok := state.Page(model.PageRefine).PathFor(model.FormatASCII)
	assert.True(t, ok)
}

type capturePublisher struct {
	events []model.GenerationEvent
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, e model.GenerationEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func TestGeneratePublishesEvent(t *testing.T) {
	svc, _, _ := newTestGeneration(t, GenerationConfig{ModeSuffix: true})
	pub := &capturePublisher{err: errors.New("broker gone")}
	svc.SetPublisher(pub)

	res, err := svc.Generate(context.Background(), GenerateInput{Page: model.PageRefine, Description: "gear", Format: model.FormatBinary, Documents: []string{"a"}})
	require.NoError(t, err, "publish failures must not fail the generation")

	require.Len(t, pub.events, 1)
	assert.Equal(t, model.PageRefine, pub.events[0].Page)
	assert.Equal(t, res.BinaryPath, pub.events[0].BinaryPath)
	assert.Equal(t, 1, pub.events[0].Documents)

	_, err = svc.Generate(context.Background(), GenerateInput{Page: model.PageRefine, Description: " "})
	assert.ErrorIs(t, err, ErrEmptyDescription)
	assert.Len(t, pub.events, 1)
}
