package api

import (
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/datallboy/gotube/internal/api/controllers"
	"github.com/datallboy/gotube/internal/app"
	"github.com/datallboy/gotube/internal/ws"
)

func RegisterRoutes(e *echo.Echo, app *app.Context, hub *ws.Hub, router *ws.Router) {

	// Middleware: the browser UI lives on another origin
	e.Use(middleware.CORS())

	// Middleware: Request Logger
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			app.Logger.Info("%s %s | %d | %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	infoCtrl := &controllers.VideoInfoController{App: app}
	filesCtrl := &controllers.DownloadsController{App: app}
	wsCtrl := &controllers.WSController{App: app, Hub: hub, Router: router}

	e.GET("/", filesCtrl.Root)
	e.POST("/video-info", infoCtrl.Handle)
	e.GET("/downloads", filesCtrl.List)
	e.GET("/download/:filename", filesCtrl.File)

	// Persistent per-client channel
	e.GET("/ws/:client_id", wsCtrl.Handle)
}
