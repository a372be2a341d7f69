// Package workspace owns the two working directories: transient audio and
// public downloads.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const (
	maxClipNameLen  = 50
	defaultClipName = "clip"
)

type Workspace struct {
	TempDir      string
	DownloadsDir string
}

func New(tempDir, downloadsDir string) *Workspace {
	return &Workspace{TempDir: tempDir, DownloadsDir: downloadsDir}
}

// Ensure creates both directories if they are missing.
func (w *Workspace) Ensure() error {
	for _, dir := range []string{w.TempDir, w.DownloadsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// TempAudioPath returns a fresh mp3 path in the temp directory.
func (w *Workspace) TempAudioPath(now time.Time) string {
	return filepath.Join(w.TempDir, fmt.Sprintf("audio_%d_%s.mp3", now.UnixMilli(), shortID()))
}

// ClipPath returns the file name and full path for a new clip. Names are
// unique across concurrent requests even when the clip name repeats.
func (w *Workspace) ClipPath(clipName string, now time.Time) (string, string) {
	name := fmt.Sprintf("%s_%d_%s.mp4", SanitizeClipName(clipName), now.UnixMilli(), shortID())
	return name, filepath.Join(w.DownloadsDir, name)
}

// SanitizeClipName keeps ASCII letters, digits, '-' and '_' and caps the
// result at 50 characters.
func SanitizeClipName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r > unicode.MaxASCII {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		}
		if b.Len() >= maxClipNameLen {
			break
		}
	}
	if b.Len() == 0 {
		return defaultClipName
	}
	return b.String()
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}
