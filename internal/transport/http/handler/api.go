package handler

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cadgen/internal/app"
	"cadgen/internal/model"
	"cadgen/internal/render"
	"cadgen/internal/storage"
	"cadgen/internal/transport/http/response"
)

type APIHandler struct {
	uploads   *app.UploadService
	generator *app.GenerationService
	preview   *app.PreviewService
}

type GenerateRequest struct {
	Description string   `json:"description"`
	Format      string   `json:"format"`
	Page        string   `json:"page"`
	Documents   []string `json:"documents"`
}

type RenderRequest struct {
	Path string `json:"path" binding:"required"`
}

type renderResponse struct {
	PNG       string     `json:"png"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	Eye       [3]float64 `json:"eye"`
	Target    [3]float64 `json:"target"`
	Up        [3]float64 `json:"up"`
	Diagonal  float64    `json:"diagonal"`
	ScalarMin float64    `json:"scalar_min"`
	ScalarMax float64    `json:"scalar_max"`
	Vertices  int        `json:"vertices"`
	Triangles int        `json:"triangles"`
}

func NewAPIHandler(uploads *app.UploadService, generator *app.GenerationService, preview *app.PreviewService) *APIHandler {
	return &APIHandler{uploads: uploads, generator: generator, preview: preview}
}

func (h *APIHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	in := app.GenerateInput{Description: req.Description, Format: model.FormatBinary, Page: model.PageGenerate, Documents: req.Documents}
	if req.Format != "" {
		format, err := model.ParseFormat(req.Format)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeUnknownFormat, err.Error())
			return
		}
		in.Format = format
	}
	if req.Page != "" {
		page, err := model.ParsePageID(req.Page)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		in.Page = page
	}

	res, err := h.generator.Generate(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, app.ErrEmptyDescription) {
			response.Error(c, http.StatusBadRequest, response.CodeEmptyDescription, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "generate failed")
		}
		return
	}
	response.OK(c, res)
}

func (h *APIHandler) Upload(c *gin.Context) {
	files, err := readUploads(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		return
	}
	if len(files) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeNoUploads, app.ErrNoUploads.Error())
		return
	}
	paths, err := h.uploads.Save(c.Request.Context(), files)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "save uploads failed")
		return
	}
	response.OK(c, gin.H{"paths": paths})
}

func (h *APIHandler) Render(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	frame, err := h.preview.PreviewOutput(req.Path)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidOutputPath):
			response.Error(c, http.StatusBadRequest, response.CodeInvalidPath, err.Error())
		case errors.Is(err, app.ErrRenderFailed):
			response.Error(c, http.StatusUnprocessableEntity, response.CodeRenderFailed, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "render failed")
		}
		return
	}
	response.OK(c, newRenderResponse(frame))
}

func newRenderResponse(f *render.Frame) renderResponse {
	cam := f.Camera
	return renderResponse{
		PNG:       base64.StdEncoding.EncodeToString(f.PNG),
		Width:     f.Width,
		Height:    f.Height,
		Eye:       [3]float64{cam.Eye.X, cam.Eye.Y, cam.Eye.Z},
		Target:    [3]float64{cam.Target.X, cam.Target.Y, cam.Target.Z},
		Up:        [3]float64{cam.Up.X, cam.Up.Y, cam.Up.Z},
		Diagonal:  cam.Diagonal,
		ScalarMin: f.ScalarMin,
		ScalarMax: f.ScalarMax,
		Vertices:  f.Vertices,
		Triangles: f.Triangles,
	}
}
