package progress

import (
	"fmt"
	"time"
)

const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib
)

// FormatBytes renders a byte count the way clients display it: 1024-based
// units with one decimal above the byte range.
func FormatBytes(b int64) string {
	switch {
	case b < 0:
		return "N/A"
	case b >= gib:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gib))
	case b >= mib:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mib))
	case b >= kib:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(kib))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// FormatSizeMB renders a completed artifact size. Always megabytes: clients
// key off the "MB" suffix.
func FormatSizeMB(b int64) string {
	return fmt.Sprintf("%.1f MB", float64(b)/float64(mib))
}

// FormatSpeed converts a byte rate to megabits per second.
func FormatSpeed(bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "0.0 Mbps"
	}
	mbps := bytesPerSec * 8 / float64(mib)
	return fmt.Sprintf("%.1f Mbps", mbps)
}

// FormatETA renders minutes/seconds remaining, or "Unknown" when the engine
// did not report a value. Never does arithmetic on a missing value.
func FormatETA(eta time.Duration, known bool) string {
	if !known || eta < 0 {
		return "Unknown"
	}
	secs := int64(eta.Seconds())
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}

// Percentage is downloaded/total*100 clamped to [0,100]; 0 when the total is
// unknown or zero. Never NaN, never negative.
func Percentage(downloaded, total int64) float64 {
	if total <= 0 || downloaded <= 0 {
		return 0
	}
	pct := float64(downloaded) / float64(total) * 100
	if pct > 100 {
		return 100
	}
	return pct
}
