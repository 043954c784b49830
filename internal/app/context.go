package app

import (
	"context"

	"github.com/datallboy/gotube/internal/domain"
	"github.com/datallboy/gotube/internal/infra/config"
	"github.com/datallboy/gotube/internal/infra/logger"
)

// Engine is the external extraction/transcoding capability. It resolves the
// URL, negotiates formats from the quality selector and produces the final
// file; callers treat it as opaque.
type Engine interface {
	// Download runs one blocking download/transcode. Progress callbacks may
	// fire from the engine's own goroutines.
	Download(ctx context.Context, req domain.DownloadRequest, onProgress domain.ProgressFunc) (*domain.DownloadResult, error)

	// Probe extracts metadata without downloading anything.
	Probe(ctx context.Context, url string) (*domain.VideoInfo, error)
}

// Context holds the core environment and shared resources for GoTube.
// It acts as the "Single Source of Truth" for the application wiring.
type Context struct {
	Config *config.Config
	Logger *logger.Logger

	Engine Engine
}

// NewContext initializes the base environment.
func NewContext(cfg *config.Config, log *logger.Logger) *Context {
	return &Context{
		Config: cfg,
		Logger: log,
	}
}
