package controllers

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/datallboy/gotube/internal/app"
	"github.com/datallboy/gotube/internal/progress"
)

type DownloadsController struct {
	App *app.Context
}

// Root is the liveness endpoint.
func (ctrl *DownloadsController) Root(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "GoTube API is running"})
}

// List returns the files sitting in the output directory.
func (ctrl *DownloadsController) List(c *echo.Context) error {
	files := make([]FileEntry, 0)

	entries, err := os.ReadDir(ctrl.App.Config.Download.OutDir)
	if err != nil {
		// A missing directory just means nothing finished yet.
		return c.JSON(http.StatusOK, FilesResponse{Files: files})
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileEntry{
			Filename: entry.Name(),
			Size:     progress.FormatSizeMB(info.Size()),
			Created:  info.ModTime().Format(time.ANSIC),
		})
	}

	return c.JSON(http.StatusOK, FilesResponse{Files: files})
}

// File streams one completed file as a generic binary attachment.
func (ctrl *DownloadsController) File(c *echo.Context) error {
	// Base strips any path traversal the client smuggled in.
	filename := filepath.Base(c.Param("filename"))
	if filename == "." || filename == string(filepath.Separator) {
		return c.String(http.StatusBadRequest, "Missing filename")
	}

	path := filepath.Join(ctrl.App.Config.Download.OutDir, filename)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return c.String(http.StatusNotFound, "File not found")
	}

	return c.Attachment(path, filename)
}
