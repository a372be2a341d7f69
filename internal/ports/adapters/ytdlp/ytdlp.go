package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/itzleon156-collab/So-clip/internal/metrics"
	"github.com/itzleon156-collab/So-clip/internal/types"
)

const (
	infoTimeout  = 60 * time.Second
	audioTimeout = 300 * time.Second

	// audioSection bounds the audio download to the first ten minutes.
	audioSection = "*0-600"
	waitDelay    = 5 * time.Second
)

type Adapter struct {
	bin string
}

func New(binPath string) *Adapter {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &Adapter{bin: binPath}
}

type infoDump struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Duration   float64 `json:"duration"`
	Thumbnail  string  `json:"thumbnail"`
	Uploader   string  `json:"uploader"`
	Channel    string  `json:"channel"`
	UploaderID string  `json:"uploader_id"`
}

func (a *Adapter) FetchInfo(ctx context.Context, url string) (types.VideoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, infoTimeout)
	defer cancel()

	start := time.Now()
	defer metrics.ObserveProcess("yt-dlp", "info", start)

	cmd := exec.CommandContext(ctx, a.bin, "--dump-json", "--no-warnings", "--no-playlist", "--", url)
	cmd.WaitDelay = waitDelay
	out, err := cmd.Output()
	if err != nil {
		return types.VideoInfo{}, fmt.Errorf("yt-dlp dump-json: %w\n%s", err, exitStderr(err))
	}

	var d infoDump
	if err := json.Unmarshal(out, &d); err != nil {
		return types.VideoInfo{}, fmt.Errorf("parse yt-dlp metadata: %w", err)
	}
	return types.VideoInfo{
		Title:     d.Title,
		Duration:  d.Duration,
		Thumbnail: d.Thumbnail,
		Author:    firstNonEmpty(d.Uploader, d.Channel, d.UploaderID),
		VideoID:   d.ID,
	}, nil
}

// ExtractAudio downloads the leading audio section of url as mp3 at outPath.
// outPath must end in ".mp3"; yt-dlp picks the final extension itself.
func (a *Adapter) ExtractAudio(ctx context.Context, url, outPath string) error {
	if !strings.HasSuffix(outPath, ".mp3") {
		return fmt.Errorf("audio output %q must end in .mp3", outPath)
	}
	ctx, cancel := context.WithTimeout(ctx, audioTimeout)
	defer cancel()

	start := time.Now()
	defer metrics.ObserveProcess("yt-dlp", "audio", start)

	template := strings.TrimSuffix(outPath, ".mp3") + ".%(ext)s"
	cmd := exec.CommandContext(ctx, a.bin,
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "5",
		"--download-sections", audioSection,
		"--no-playlist",
		"--no-warnings",
		"-o", template,
		"--", url,
	)
	cmd.WaitDelay = waitDelay
	b, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("yt-dlp audio timeout after %s", audioTimeout)
		}
		return fmt.Errorf("yt-dlp extract audio: %w\n%s", err, string(b))
	}
	return nil
}

func exitStderr(err error) string {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return strings.TrimSpace(string(ee.Stderr))
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
