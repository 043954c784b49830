package controllers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/datallboy/gotube/internal/app"
)

type VideoInfoController struct {
	App *app.Context
}

// Handle probes a URL in simulate mode and returns its metadata plus the
// shaped format list. Any extraction failure surfaces as a 400.
func (ctrl *VideoInfoController) Handle(c *echo.Context) error {
	var req VideoInfoRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"detail": "invalid request body"})
	}
	if req.URL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"detail": "url is required"})
	}

	info, err := ctrl.App.Engine.Probe(c.Request().Context(), req.URL)
	if err != nil {
		ctrl.App.Logger.Warn("Probe failed for %s: %v", req.URL, err)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"detail": fmt.Sprintf("Error extracting video info: %v", err),
		})
	}

	return c.JSON(http.StatusOK, VideoInfoResponse{
		Title:      info.Title,
		Thumbnail:  info.Thumbnail,
		Duration:   info.Duration,
		Uploader:   info.Uploader,
		ViewCount:  info.ViewCount,
		UploadDate: info.UploadDate,
		Formats:    buildFormatList(info.Formats),
	})
}
