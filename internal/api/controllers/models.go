package controllers

import (
	"encoding/json"
	"sort"

	"github.com/datallboy/gotube/internal/domain"
)

type VideoInfoRequest struct {
	URL     string `json:"url"`
	Quality string `json:"quality,omitempty"`
}

type VideoInfoResponse struct {
	Title      string         `json:"title"`
	Thumbnail  string         `json:"thumbnail"`
	Duration   int64          `json:"duration"`
	Uploader   string         `json:"uploader"`
	ViewCount  int64          `json:"view_count"`
	UploadDate string         `json:"upload_date"`
	Formats    []FormatOption `json:"formats"`
}

// FormatOption is one selectable entry in the format list. Height is nil for
// the audio-only entry and serialized as "N/A" to keep the wire contract.
type FormatOption struct {
	Height     *int   `json:"-"`
	FormatNote string `json:"format_note"`
	Ext        string `json:"ext"`
	Filesize   int64  `json:"filesize"`
}

func (f FormatOption) MarshalJSON() ([]byte, error) {
	type alias FormatOption
	var height any = "N/A"
	if f.Height != nil {
		height = *f.Height
	}
	return json.Marshal(struct {
		Height any `json:"height"`
		alias
	}{Height: height, alias: alias(f)})
}

type FileEntry struct {
	Filename string `json:"filename"`
	Size     string `json:"size"`
	Created  string `json:"created"`
}

type FilesResponse struct {
	Files []FileEntry `json:"files"`
}

// buildFormatList shapes the engine's raw format table for clients: unique
// heights for mp4/webm video formats, one audio-only entry picked by highest
// total bitrate, sorted by height descending with the audio entry last.
func buildFormatList(formats []domain.Format) []FormatOption {
	options := make([]FormatOption, 0, len(formats))
	seenHeights := make(map[int]bool)

	var bestAudio *domain.Format
	for i := range formats {
		f := formats[i]

		// An unreported vcodec still counts as video; only an explicit "none"
		// excludes the format.
		if f.Height > 0 && f.VCodec != "none" && (f.Ext == "mp4" || f.Ext == "webm") {
			if seenHeights[f.Height] {
				continue
			}
			seenHeights[f.Height] = true
			h := f.Height
			options = append(options, FormatOption{
				Height:     &h,
				FormatNote: f.FormatNote,
				Ext:        f.Ext,
				Filesize:   f.Filesize,
			})
			continue
		}

		if f.ACodec != "" && f.ACodec != "none" && (f.VCodec == "" || f.VCodec == "none") {
			if bestAudio == nil || f.TBR > bestAudio.TBR {
				bestAudio = &formats[i]
			}
		}
	}

	if bestAudio != nil {
		options = append(options, FormatOption{
			FormatNote: "Audio Only (MP3)",
			Ext:        "mp3",
			Filesize:   bestAudio.Filesize,
		})
	}

	sort.SliceStable(options, func(i, j int) bool {
		return heightRank(options[i]) > heightRank(options[j])
	})

	return options
}

func heightRank(f FormatOption) int {
	if f.Height == nil {
		return -1
	}
	return *f.Height
}
