// Package protocol defines the websocket wire messages exchanged with
// clients. Both the session layer and the progress emitter encode these.
package protocol

import "github.com/datallboy/gotube/internal/domain"

const (
	// client -> server
	TypeStartDownload = "start_download"
	TypeGetDownloads  = "get_downloads"

	// server -> client
	TypeDownloadStarted = "download_started"
	TypeProgress        = "progress"
	TypeCompleted       = "completed"
	TypeError           = "error"
	TypeDownloadsStatus = "downloads_status"
)

// Command is one inbound control message. Unknown Type values are a
// no-op-with-log, never fatal for the session.
type Command struct {
	Type    string `json:"type"`
	URL     string `json:"url,omitempty"`
	Quality string `json:"quality,omitempty"`
}

type DownloadStarted struct {
	Type       string `json:"type"`
	DownloadID string `json:"download_id"`
}

type Progress struct {
	Type       string  `json:"type"`
	DownloadID string  `json:"download_id"`
	Percentage float64 `json:"percentage"`
	Downloaded string  `json:"downloaded"`
	Total      string  `json:"total"`
	Speed      string  `json:"speed"`
	ETA        string  `json:"eta"`
	Filename   string  `json:"filename"`
}

type Completed struct {
	Type       string `json:"type"`
	DownloadID string `json:"download_id"`
	Filename   string `json:"filename"`
	FilePath   string `json:"file_path"`
	FileSize   string `json:"file_size"`
}

type Error struct {
	Type       string `json:"type"`
	DownloadID string `json:"download_id,omitempty"`
	Message    string `json:"message"`
}

type DownloadsStatus struct {
	Type      string                `json:"type"`
	Downloads map[string]domain.Job `json:"downloads"`
}

func NewDownloadStarted(id string) DownloadStarted {
	return DownloadStarted{Type: TypeDownloadStarted, DownloadID: id}
}

func NewProgress(id string, p domain.Progress) Progress {
	return Progress{
		Type:       TypeProgress,
		DownloadID: id,
		Percentage: p.Percentage,
		Downloaded: p.Downloaded,
		Total:      p.Total,
		Speed:      p.Speed,
		ETA:        p.ETA,
		Filename:   p.Filename,
	}
}

func NewCompleted(id string, a domain.Artifact) Completed {
	return Completed{
		Type:       TypeCompleted,
		DownloadID: id,
		Filename:   a.Filename,
		FilePath:   a.Path,
		FileSize:   a.Size,
	}
}

func NewError(id, message string) Error {
	return Error{Type: TypeError, DownloadID: id, Message: message}
}

func NewDownloadsStatus(downloads map[string]domain.Job) DownloadsStatus {
	return DownloadsStatus{Type: TypeDownloadsStatus, Downloads: downloads}
}
