package handler

import (
	"encoding/base64"
	"errors"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cadgen/internal/app"
	"cadgen/internal/model"
	"cadgen/internal/transport/http/middleware"
)

const stlMIME = "application/vnd.ms-pki.stl"

type PageHandler struct {
	appName   string
	sessions  *app.SessionService
	generator *app.GenerationService
	preview   *app.PreviewService
	logger    *zap.Logger
}

type pageLink struct {
	ID     model.PageID
	Title  string
	Active bool
}

type formatOption struct {
	Value   model.Format
	Label   string
	Checked bool
}

type downloadLink struct {
	Label    string
	URL      string
	Filename string
}

type pageView struct {
	AppName     string
	Page        model.PageID
	Title       string
	InputLabel  string
	ActionLabel string
	Pages       []pageLink
	Formats     []formatOption
	UploadCount int
	Flash       *model.Flash
	State       *model.PageState
	ViewportURI template.URL
	RenderError string
	Downloads   []downloadLink
}

func NewPageHandler(appName string, sessions *app.SessionService, generator *app.GenerationService, preview *app.PreviewService, logger *zap.Logger) *PageHandler {
	return &PageHandler{
		appName:   appName,
		sessions:  sessions,
		generator: generator,
		preview:   preview,
		logger:    logger.With(zap.String("component", "page_handler")),
	}
}

func (h *PageHandler) Index(c *gin.Context) {
	state, ok := middleware.SessionFrom(c)
	if !ok {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Redirect(http.StatusFound, pageURL(state.ActivePage))
}

func (h *PageHandler) Show(c *gin.Context) {
	state, page, ok := h.sessionAndPage(c)
	if !ok {
		return
	}

	state.SwitchPage(page)
	view := h.buildView(state, page)
	if err := h.sessions.Save(c.Request.Context(), state); err != nil {
		h.fail(c, "save session failed", err)
		return
	}
	c.HTML(http.StatusOK, "page.tmpl", view)
}

func (h *PageHandler) Generate(c *gin.Context) {
	state, page, ok := h.sessionAndPage(c)
	if !ok {
		return
	}
	var format model.Format
	if raw := c.PostForm("format"); raw != "" {
		parsed, err := model.ParseFormat(raw)
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		format = parsed
	}

	_, err := h.generator.GeneratePage(c.Request.Context(), state, page, c.PostForm("description"), format)
	if err != nil && !errors.Is(err, app.ErrEmptyDescription) {
		h.fail(c, "generate failed", err)
		return
	}
	if err := h.sessions.Save(c.Request.Context(), state); err != nil {
		h.fail(c, "save session failed", err)
		return
	}
	c.Redirect(http.StatusSeeOther, pageURL(page))
}

func (h *PageHandler) Download(c *gin.Context) {
	state, page, ok := h.sessionAndPage(c)
	if !ok {
		return
	}
	format, err := model.ParseFormat(c.Param("format"))
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	path, found := state.Page(page).PathFor(format)
	if !found {
		c.String(http.StatusNotFound, app.ErrNotGenerated.Error())
		return
	}

	c.Header("Content-Type", stlMIME)
	c.FileAttachment(path, filepath.Base(path))
}

func (h *PageHandler) Viewport(c *gin.Context) {
	state, page, ok := h.sessionAndPage(c)
	if !ok {
		return
	}
	frame, err := h.preview.PreviewPage(state, page)
	switch {
	case errors.Is(err, app.ErrNotGenerated):
		c.String(http.StatusNotFound, err.Error())
	case err != nil:
		c.String(http.StatusUnprocessableEntity, err.Error())
	default:
		c.Data(http.StatusOK, "image/png", frame.PNG)
	}
}

func (h *PageHandler) sessionAndPage(c *gin.Context) (*model.SessionState, model.PageID, bool) {
	state, ok := middleware.SessionFrom(c)
	if !ok {
		c.AbortWithStatus(http.StatusInternalServerError)
		return nil, "", false
	}
	page, err := model.ParsePageID(c.Param("page"))
	if err != nil {
		c.String(http.StatusNotFound, err.Error())
		return nil, "", false
	}
	return state, page, true
}

func (h *PageHandler) buildView(state *model.SessionState, page model.PageID) pageView {
	ps := state.Page(page)
	view := pageView{
		AppName:     h.appName,
		Page:        page,
		Title:       page.Title(),
		InputLabel:  page.InputLabel(),
		ActionLabel: page.ActionLabel(),
		UploadCount: len(state.Uploads),
		Flash:       state.PopFlash(),
		State:       ps,
	}
	for _, p := range model.Pages {
		view.Pages = append(view.Pages, pageLink{ID: p, Title: p.Title(), Active: p == page})
	}
	for _, f := range model.Formats {
		view.Formats = append(view.Formats, formatOption{Value: f, Label: f.Label(), Checked: f == state.Format})
	}
	if !ps.Generated {
		return view
	}

	frame, err := h.preview.PreviewPage(state, page)
	if err != nil {
		view.RenderError = err.Error()
	} else {
		view.ViewportURI = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(frame.PNG))
	}
	for _, f := range []model.Format{model.FormatBinary, model.FormatASCII} {
		if path, ok := ps.PathFor(f); ok {
			view.Downloads = append(view.Downloads, downloadLink{
				Label:    "Download " + f.Label() + " STL",
				URL:      pageURL(page) + "/download/" + string(f),
				Filename: filepath.Base(path),
			})
		}
	}
	return view
}

func (h *PageHandler) fail(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	c.String(http.StatusInternalServerError, msg)
}

func pageURL(page model.PageID) string {
	return "/page/" + string(page)
}
