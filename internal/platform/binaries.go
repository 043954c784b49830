package platform

import (
	"fmt"
	"os/exec"
)

// RequiredBinaries lists external system binaries the app needs to function
var RequiredBinaries = []string{
	"yt-dlp",
}

// OptionalBinaries degrade features when absent instead of blocking startup
var OptionalBinaries = map[string]string{
	"ffmpeg": "stream merging and audio transcode",
}

func ValidateDependencies() error {
	for _, bin := range RequiredBinaries {
		_, err := exec.LookPath(bin)
		if err != nil {
			return fmt.Errorf("required dependency: '%s' not found in PATH", bin)
		}
	}

	for bin, role := range OptionalBinaries {
		if _, err := exec.LookPath(bin); err != nil {
			fmt.Printf("Info: %s not found. %s will be unavailable.\n", bin, role)
		}
	}

	return nil
}
