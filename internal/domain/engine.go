package domain

import "time"

// DownloadRequest is the input to one engine invocation.
type DownloadRequest struct {
	URL     string
	Quality string
	OutDir  string
}

// DownloadResult reports what the engine produced on success. Path must be
// independently verifiable on disk before the job may complete.
type DownloadResult struct {
	Path string
}

// ProgressTick is one normalized callback from the engine. The engine may fire
// these from its own goroutines; receivers must not assume the submitting
// context.
type ProgressTick struct {
	Downloaded int64
	Total      int64
	Speed      float64 // bytes per second, 0 when unknown
	ETA        time.Duration
	HasETA     bool
	Filename   string

	// Err is set when the engine reports a mid-transfer error. A tick with
	// Err forces the job terminal immediately.
	Err error
}

// ProgressFunc receives progress ticks. Implementations should be fast and
// non-blocking; the engine invokes them synchronously.
type ProgressFunc func(ProgressTick)
