package http

import (
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cadgen/internal/bootstrap"
	"cadgen/internal/transport/http/handler"
	"cadgen/internal/transport/http/middleware"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.Recovery(app.Logger), middleware.RequestLogger(app.Logger))
	if app.Metrics != nil {
		router.Use(middleware.Metrics(app.Metrics))
	}
	router.SetHTMLTemplate(template.Must(template.New("").ParseFS(templatesFS, "templates/*.tmpl")))
	// 32 MB of each multipart upload is held in memory; the rest spills to temp files.
	router.MaxMultipartMemory = 32 << 20

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	if app.Metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})))
	}

	pageHandler := handler.NewPageHandler(app.Config.App.Name, app.Sessions, app.Generator, app.Preview, app.Logger)
	uploadHandler := handler.NewUploadHandler(app.Sessions, app.Uploads, app.Logger)

	ui := router.Group("/")
	ui.Use(middleware.Session(app.Sessions, app.Config.Session.CookieName, app.Logger))
	ui.GET("/", pageHandler.Index)
	ui.GET("/page/:page", pageHandler.Show)
	ui.POST("/page/:page/generate", pageHandler.Generate)
	ui.GET("/page/:page/download/:format", pageHandler.Download)
	ui.GET("/page/:page/viewport.png", pageHandler.Viewport)
	ui.POST("/uploads", uploadHandler.Upload)

	apiHandler := handler.NewAPIHandler(app.Uploads, app.Generator, app.Preview)
	v1 := router.Group("/api/v1")
	v1.POST("/generate", apiHandler.Generate)
	v1.POST("/uploads", apiHandler.Upload)
	v1.POST("/render", apiHandler.Render)

	return router
}
