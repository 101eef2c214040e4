package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cadgen/internal/app"
	"cadgen/internal/transport/http/middleware"
)

const uploadField = "files"

type UploadHandler struct {
	sessions *app.SessionService
	uploads  *app.UploadService
	logger   *zap.Logger
}

func NewUploadHandler(sessions *app.SessionService, uploads *app.UploadService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		sessions: sessions,
		uploads:  uploads,
		logger:   logger.With(zap.String("component", "upload_handler")),
	}
}

// Upload saves the sidebar's files and returns to the active page.
func (h *UploadHandler) Upload(c *gin.Context) {
	state, ok := middleware.SessionFrom(c)
	if !ok {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	files, err := readUploads(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.uploads.SaveForSession(c.Request.Context(), state, files); err != nil {
		h.logger.Error("save uploads failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "save uploads failed")
		return
	}
	if err := h.sessions.Save(c.Request.Context(), state); err != nil {
		h.logger.Error("save session failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "save session failed")
		return
	}
	c.Redirect(http.StatusSeeOther, pageURL(state.ActivePage))
}

// readUploads collects every file of the multipart field. A request without the
// field yields no files.
func readUploads(c *gin.Context) ([]app.UploadedFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse multipart form failed: %w", err)
	}

	headers := form.File[uploadField]
	files := make([]app.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readFileHeader(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, app.UploadedFile{Filename: fh.Filename, Data: data})
	}
	return files, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q failed: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %q failed: %w", fh.Filename, err)
	}
	return data, nil
}
