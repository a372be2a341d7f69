package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/itzleon156-collab/So-clip/internal/log"
	"github.com/itzleon156-collab/So-clip/internal/metrics"
)

const (
	clipTimeout = 300 * time.Second
	waitDelay   = 5 * time.Second
	stderrTail  = 64 << 10

	// sourceFormat caps the downloaded stream at 720p.
	sourceFormat = "best[height<=720]"
)

// Adapter cuts clips by piping the downloader's stdout into ffmpeg's stdin.
type Adapter struct {
	ytdlp  string
	ffmpeg string
}

func New(ytdlpPath, ffmpegPath string) *Adapter {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Adapter{ytdlp: ytdlpPath, ffmpeg: ffmpegPath}
}

type exitResult struct {
	err  error
	tail *tailBuffer
}

// CutClip renders duration seconds of url starting at start into outPath.
// Both processes share one deadline and both exits are awaited.
func (a *Adapter) CutClip(ctx context.Context, url string, start, duration float64, outPath string) error {
	ctx, cancel := context.WithTimeout(ctx, clipTimeout)
	defer cancel()

	began := time.Now()
	defer metrics.ObserveProcess("ffmpeg", "clip", began)

	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("create pipe: %w", err)
	}

	dl := exec.CommandContext(ctx, a.ytdlp,
		"-f", sourceFormat,
		"-o", "-",
		"--no-playlist",
		"--no-warnings",
		"--", url,
	)
	dlTail := newTailBuffer(stderrTail)
	dl.Stdout = pw
	dl.Stderr = dlTail
	dl.WaitDelay = waitDelay

	ff := exec.CommandContext(ctx, a.ffmpeg,
		"-hide_banner",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-ss", fmtSeconds(start),
		"-t", fmtSeconds(duration),
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-crf", "28",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-y",
		outPath,
	)
	ffTail := newTailBuffer(stderrTail)
	ff.Stdin = pr
	ff.Stderr = ffTail
	ff.WaitDelay = waitDelay

	if err := ff.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	if err := dl.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		cancel()
		_ = ff.Wait()
		return fmt.Errorf("start yt-dlp: %w", err)
	}
	// The children hold their own copies; ours must go so EOF and EPIPE propagate.
	_ = pr.Close()
	_ = pw.Close()

	dlDone := make(chan exitResult, 1)
	ffDone := make(chan exitResult, 1)
	go func() { dlDone <- exitResult{err: dl.Wait(), tail: dlTail} }()
	go func() { ffDone <- exitResult{err: ff.Wait(), tail: ffTail} }()

	var dlRes, ffRes exitResult
	select {
	case ffRes = <-ffDone:
		if ffRes.err != nil {
			cancel()
		}
		dlRes = <-dlDone
	case dlRes = <-dlDone:
		// ffmpeg sees EOF once the source exits, so this wait is bounded.
		ffRes = <-ffDone
	}

	if err := settle(ctx, dlRes, ffRes); err != nil {
		return err
	}
	if dlRes.err != nil {
		logger := log.WithComponent("ffmpeg")
		logger.Debug().
			Err(dlRes.err).
			Str(log.FieldTool, "yt-dlp").
			Str(log.FieldURL, url).
			Str("stderr", dlRes.tail.String()).
			Msg("yt-dlp exited after ffmpeg closed the pipe")
	}
	return nil
}

// settle decides the outcome once both processes have exited. It does not
// depend on which exit was observed first: an encoder failure wins, and a
// downloader failure counts unless it is the broken pipe from an early close.
func settle(ctx context.Context, dlRes, ffRes exitResult) error {
	if ffRes.err != nil {
		return fmt.Errorf("ffmpeg render clip: %w\n%s", ctxErr(ctx, ffRes.err), ffRes.tail.String())
	}
	if dlRes.err != nil && !brokenPipe(dlRes.err.Error()+"\n"+dlRes.tail.String()) {
		return fmt.Errorf("yt-dlp stream: %w\n%s", ctxErr(ctx, dlRes.err), dlRes.tail.String())
	}
	return nil
}

// brokenPipe reports whether the downloader died writing to a closed pipe,
// which happens when ffmpeg has read all it needs.
func brokenPipe(diag string) bool {
	s := strings.ToLower(diag)
	return strings.Contains(s, "broken pipe") || strings.Contains(s, "errno 32")
}

func ctxErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("timeout after %s: %w", clipTimeout, err)
	}
	return err
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

// tailBuffer keeps only the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if n >= t.limit {
		t.buf = append(t.buf[:0], p[n-t.limit:]...)
		return n, nil
	}
	if over := len(t.buf) + n - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	t.buf = append(t.buf, p...)
	return n, nil
}

func (t *tailBuffer) String() string {
	return strings.TrimSpace(string(t.buf))
}
