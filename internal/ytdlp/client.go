// Package ytdlp adapts the external yt-dlp engine to the app.Engine
// contract. The engine owns URL resolution, format negotiation, transfer and
// muxing; this package only translates requests and callback events.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/datallboy/gotube/internal/domain"
	"github.com/datallboy/gotube/internal/infra/config"
	"github.com/datallboy/gotube/internal/infra/logger"
)

// callbackInterval is how often the library polls yt-dlp for progress. The
// emitter applies its own client-facing throttle on top.
const callbackInterval = 100 * time.Millisecond

type Client struct {
	ffmpegPath string
	log        *logger.Logger
}

func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		ffmpegPath: cfg.Engine.FFmpegPath,
		log:        log,
	}
}

// Download runs one blocking download/transcode against yt-dlp. Progress
// callbacks fire on the library's goroutines and are forwarded as-is to
// onProgress after normalization.
func (c *Client) Download(ctx context.Context, req domain.DownloadRequest, onProgress domain.ProgressFunc) (*domain.DownloadResult, error) {
	dl := ytdlp.New().
		Format(FormatSelector(req.Quality)).
		Output(req.OutDir + "/%(title)s.%(ext)s").
		MergeOutputFormat("mp4").
		NoPlaylist().
		NoWarnings()

	if IsAudioOnly(req.Quality) {
		dl = dl.ExtractAudio().AudioFormat("mp3").AudioQuality("192K")
	}

	if c.ffmpegPath != "" {
		dl = dl.FFmpegLocation(c.ffmpegPath)
	}

	if onProgress != nil {
		dl.ProgressFunc(callbackInterval, func(update ytdlp.ProgressUpdate) {
			if tick, ok := toTick(update); ok {
				onProgress(tick)
			}
		})
	}

	result, err := dl.Run(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}

	path := finalPath(result)
	if path == "" {
		return nil, fmt.Errorf("resolve output path: %w", domain.ErrMissingArtifact)
	}

	return &domain.DownloadResult{Path: path}, nil
}

// Probe extracts metadata in simulate mode; nothing touches the disk.
func (c *Client) Probe(ctx context.Context, url string) (*domain.VideoInfo, error) {
	result, err := ytdlp.New().
		Simulate().
		NoPlaylist().
		NoWarnings().
		Quiet().
		Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}

	infos, err := result.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("parse extracted info: %w", err)
	}
	if len(infos) == 0 {
		return nil, errors.New("engine returned no metadata")
	}

	info := infos[0]
	out := &domain.VideoInfo{
		Title:      strOr(info.Title, "Unknown Title"),
		Thumbnail:  strOr(info.Thumbnail, ""),
		Duration:   int64(f64(info.Duration)),
		Uploader:   strOr(info.Uploader, "Unknown"),
		ViewCount:  int64(f64(info.ViewCount)),
		UploadDate: strOr(info.UploadDate, ""),
	}

	for _, f := range info.Formats {
		if f == nil {
			continue
		}
		out.Formats = append(out.Formats, domain.Format{
			Height:     int(f64(f.Height)),
			FormatNote: strOr(f.FormatNote, ""),
			Ext:        strOr(f.Extension, ""),
			Filesize:   i64(f.FileSize),
			VCodec:     strOr(f.VCodec, ""),
			ACodec:     strOr(f.ACodec, ""),
			TBR:        f64(f.TBR),
		})
	}

	return out, nil
}

// toTick normalizes one library callback. Only downloading and error states
// matter to callers; everything else (pre/post-processing chatter) is
// dropped here.
func toTick(update ytdlp.ProgressUpdate) (domain.ProgressTick, bool) {
	switch update.Status {
	case ytdlp.ProgressStatusError:
		return domain.ProgressTick{Err: errors.New("engine reported an error during transfer")}, true
	case ytdlp.ProgressStatusDownloading:
	default:
		return domain.ProgressTick{}, false
	}

	tick := domain.ProgressTick{
		Downloaded: int64(update.DownloadedBytes),
		Total:      int64(update.TotalBytes),
		Filename:   update.Filename,
	}

	if !update.Started.IsZero() {
		if elapsed := time.Since(update.Started); elapsed > 0 {
			tick.Speed = float64(update.DownloadedBytes) / elapsed.Seconds()
		}
	}

	if eta := update.ETA(); eta > 0 {
		tick.ETA = eta
		tick.HasETA = true
	}

	return tick, true
}

// finalPath pulls the merged output filename from the run result.
func finalPath(result *ytdlp.Result) string {
	infos, err := result.GetExtractedInfo()
	if err != nil {
		return ""
	}
	for _, info := range infos {
		if info != nil && info.Filename != nil && *info.Filename != "" {
			return *info.Filename
		}
	}
	return ""
}

func strOr(p *string, fallback string) string {
	if p == nil || *p == "" {
		return fallback
	}
	return *p
}

func i64(p *int) int64 {
	if p == nil {
		return 0
	}
	return int64(*p)
}

func f64(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
