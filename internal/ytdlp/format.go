package ytdlp

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// selectorBest prefers an mp4 merge so browsers can play the result
	// without a remux.
	selectorBest  = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	selectorAudio = "bestaudio/best"
)

// FormatSelector derives the engine format selector from a client quality
// string. Pure and deterministic:
//
//	"best"       -> best available muxed video+audio
//	"audio_only" -> best audio track (the caller adds the mp3 transcode)
//	"<N>p"       -> vertical-resolution ceiling, e.g. "720p"
//
// Anything unparseable falls back to the best merged selector. That is
// intentionally lenient toward malformed client input, matching the protocol
// this service has always spoken.
func FormatSelector(quality string) string {
	switch strings.ToLower(strings.TrimSpace(quality)) {
	case "", "best":
		return selectorBest
	case "audio_only":
		return selectorAudio
	}

	height, ok := parseHeight(quality)
	if !ok {
		return selectorBest
	}

	return fmt.Sprintf(
		"bestvideo[height<=%d][ext=mp4]+bestaudio[ext=m4a]/best[height<=%d][ext=mp4]/best",
		height, height,
	)
}

// parseHeight reads quality strings like "720p", "1080P" or a bare "480".
func parseHeight(quality string) (int, bool) {
	s := strings.TrimSpace(strings.ToLower(quality))
	s = strings.TrimSuffix(s, "p")

	height, err := strconv.Atoi(s)
	if err != nil || height <= 0 {
		return 0, false
	}
	return height, true
}

// IsAudioOnly reports whether the quality string requests the audio pipeline.
func IsAudioOnly(quality string) bool {
	return strings.EqualFold(strings.TrimSpace(quality), "audio_only")
}
