package domain

// Format is one raw entry from the engine's format table.
type Format struct {
	Height     int
	FormatNote string
	Ext        string
	Filesize   int64
	VCodec     string
	ACodec     string
	TBR        float64 // total bitrate, used to pick the best audio track
}

// VideoInfo is the metadata returned by a simulate-only probe.
type VideoInfo struct {
	Title      string
	Thumbnail  string
	Duration   int64
	Uploader   string
	ViewCount  int64
	UploadDate string
	Formats    []Format
}
