package ports

import (
	"context"

	"github.com/itzleon156-collab/So-clip/internal/types"
)

// VideoSource is the video-download utility.
type VideoSource interface {
	FetchInfo(ctx context.Context, url string) (types.VideoInfo, error)
	// ExtractAudio writes the first minutes of the source's audio track to outPath.
	ExtractAudio(ctx context.Context, url, outPath string) error
}

// ClipRenderer streams the source video into the transcoder and writes a trimmed clip.
type ClipRenderer interface {
	CutClip(ctx context.Context, url string, start, duration float64, outPath string) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (types.Transcript, error)
}

// HighlightFinder never fails: degraded results are an empty slice.
type HighlightFinder interface {
	Extract(ctx context.Context, tr types.Transcript) []types.Highlight
}

// ChatCompleter sends a single user prompt to a chat-completion model and
// returns the raw text of the first choice.
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error)
}
