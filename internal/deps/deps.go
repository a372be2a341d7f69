// Package deps verifies that the external tools soclip delegates to are installed.
package deps

import (
	"fmt"
	"os/exec"
)

const (
	YtDlpInstallURL  = "https://github.com/yt-dlp/yt-dlp#installation"
	FfmpegInstallURL = "https://ffmpeg.org/download.html"
)

// Tool is an external executable and where to get it.
type Tool struct {
	Name       string
	Path       string
	InstallURL string
}

// DependencyError reports a tool that could not be resolved.
type DependencyError struct {
	Name       string
	Path       string
	InstallURL string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s not found at %q. Install from: %s", e.Name, e.Path, e.InstallURL)
}

// Tools returns the delegated executables for the configured paths.
func Tools(ytdlpPath, ffmpegPath string) []Tool {
	return []Tool{
		{Name: "yt-dlp", Path: ytdlpPath, InstallURL: YtDlpInstallURL},
		{Name: "ffmpeg", Path: ffmpegPath, InstallURL: FfmpegInstallURL},
	}
}

// Check resolves every tool and returns one error per missing executable.
func Check(tools ...Tool) []error {
	var errs []error
	for _, t := range tools {
		path := t.Path
		if path == "" {
			path = t.Name
		}
		if _, err := exec.LookPath(path); err != nil {
			errs = append(errs, &DependencyError{Name: t.Name, Path: path, InstallURL: t.InstallURL})
		}
	}
	return errs
}
