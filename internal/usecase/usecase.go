package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/itzleon156-collab/So-clip/internal/log"
	"github.com/itzleon156-collab/So-clip/internal/metrics"
	"github.com/itzleon156-collab/So-clip/internal/ports"
	"github.com/itzleon156-collab/So-clip/internal/types"
	"github.com/itzleon156-collab/So-clip/internal/workspace"
)

// DownloadsRoute is the URL prefix the downloads directory is served under.
const DownloadsRoute = "/downloads/"

// Deps wires the pipeline to its adapters. Transcriber and Highlights are nil
// when no AI credential is configured.
type Deps struct {
	Source      ports.VideoSource
	Clipper     ports.ClipRenderer
	Transcriber ports.Transcriber
	Highlights  ports.HighlightFinder
	Workspace   *workspace.Workspace
	Now         func() time.Time
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Now == nil {
		d.Now = time.Now
	}
	return Usecase{d: d}
}

// AIEnabled reports whether analyze requests can be served.
func (u Usecase) AIEnabled() bool { return u.d.Transcriber != nil }

func (u Usecase) logger(ctx context.Context, op string) zerolog.Logger {
	return log.WithContext(ctx, log.WithComponent("usecase")).With().Str(log.FieldOp, op).Logger()
}

func (u Usecase) FetchInfo(ctx context.Context, url string) (info types.VideoInfo, err error) {
	defer func() { metrics.CountOperation("video_info", err) }()

	if strings.TrimSpace(url) == "" {
		return types.VideoInfo{}, newError(KindValidation, "url is required", nil)
	}
	info, err = u.d.Source.FetchInfo(ctx, url)
	if err != nil {
		logger := u.logger(ctx, "video_info")
		logger.Error().Err(err).Str(log.FieldURL, url).Msg("metadata lookup failed")
		return types.VideoInfo{}, newError(KindNotFound, "video not found", err)
	}
	return info, nil
}

// Analyze downloads the leading audio, transcribes it and asks for highlights.
// The temporary audio file never outlives the call.
func (u Usecase) Analyze(ctx context.Context, url string) (res types.Analysis, err error) {
	defer func() { metrics.CountOperation("analyze", err) }()

	if strings.TrimSpace(url) == "" {
		return types.Analysis{}, newError(KindValidation, "url is required", nil)
	}
	if u.d.Transcriber == nil {
		return types.Analysis{}, newError(KindConfiguration, "OpenAI API key not configured", nil)
	}

	logger := u.logger(ctx, "analyze")
	audio := u.d.Workspace.TempAudioPath(u.d.Now())
	defer removeTempAudio(logger, audio)

	logger.Info().Str(log.FieldURL, url).Msg("🎧 extracting audio")
	if err := u.d.Source.ExtractAudio(ctx, url, audio); err != nil {
		logger.Error().Err(err).Str(log.FieldURL, url).Msg("audio extraction failed")
		return types.Analysis{}, newError(KindPipeline, firstLine(err), err)
	}

	logger.Info().Str(log.FieldPath, audio).Msg("📝 transcribing")
	tr, err := u.d.Transcriber.Transcribe(ctx, audio)
	if err != nil {
		logger.Error().Err(err).Msg("transcription failed")
		return types.Analysis{}, newError(KindPipeline, firstLine(err), err)
	}

	hs := []types.Highlight{}
	if u.d.Highlights != nil {
		if found := u.d.Highlights.Extract(ctx, tr); found != nil {
			hs = found
		}
	}
	segs := tr.Segments
	if segs == nil {
		segs = []types.Segment{}
	}
	logger.Info().Int("segments", len(segs)).Int("highlights", len(hs)).Msg("✅ analysis complete")

	return types.Analysis{
		Transcription: tr.FullText,
		Segments:      segs,
		Highlights:    hs,
	}, nil
}

// CreateClip renders the requested range into the downloads directory.
func (u Usecase) CreateClip(ctx context.Context, req types.ClipRequest) (res types.ClipResult, err error) {
	defer func() { metrics.CountOperation("create_clip", err) }()

	if strings.TrimSpace(req.URL) == "" || req.StartTime == nil || req.Duration == 0 {
		return types.ClipResult{}, newError(KindValidation, "url, startTime and duration are required", nil)
	}

	logger := u.logger(ctx, "create_clip")
	name, path := u.d.Workspace.ClipPath(req.ClipName, u.d.Now())

	logger.Info().
		Str(log.FieldURL, req.URL).
		Float64("start", *req.StartTime).
		Float64("duration", req.Duration).
		Str("file", name).
		Msg("✂️  cutting clip")
	if err := u.d.Clipper.CutClip(ctx, req.URL, *req.StartTime, req.Duration, path); err != nil {
		logger.Error().Err(err).Str(log.FieldPath, path).Msg("clip render failed")
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Debug().Err(rmErr).Str(log.FieldPath, path).Msg("could not remove partial clip")
		}
		return types.ClipResult{}, newError(KindCreation, "clip creation failed", err)
	}

	st, err := os.Stat(path)
	if err != nil {
		logger.Error().Err(err).Str(log.FieldPath, path).Msg("clip missing after render")
		return types.ClipResult{}, newError(KindCreation, "clip creation failed", err)
	}

	return types.ClipResult{
		DownloadURL: DownloadsRoute + name,
		Filename:    name,
		Size:        st.Size(),
	}, nil
}

// removeTempAudio deletes the mp3 and every sibling the downloader derived
// from the same stem (".webm.part", ".m4a", ...).
func removeTempAudio(logger zerolog.Logger, audio string) {
	dir := filepath.Dir(audio)
	stem := strings.TrimSuffix(filepath.Base(audio), ".mp3") + "."
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Str(log.FieldDir, dir).Msg("could not list temp dir")
		}
		return
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), stem) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			logger.Warn().Err(err).Str(log.FieldPath, path).Msg("could not remove temp audio")
		}
	}
}

func firstLine(err error) string {
	msg := strings.TrimSpace(err.Error())
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = strings.TrimSpace(msg[:i])
	}
	return msg
}
