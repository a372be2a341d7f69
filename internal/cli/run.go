package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/itzleon156-collab/So-clip/internal/api"
	"github.com/itzleon156-collab/So-clip/internal/config"
	"github.com/itzleon156-collab/So-clip/internal/deps"
	"github.com/itzleon156-collab/So-clip/internal/domain/highlights"
	"github.com/itzleon156-collab/So-clip/internal/log"
	"github.com/itzleon156-collab/So-clip/internal/ports/adapters/ffmpeg"
	"github.com/itzleon156-collab/So-clip/internal/ports/adapters/openai"
	"github.com/itzleon156-collab/So-clip/internal/ports/adapters/ytdlp"
	"github.com/itzleon156-collab/So-clip/internal/usecase"
	"github.com/itzleon156-collab/So-clip/internal/workspace"
)

const shutdownTimeout = 10 * time.Second

// loadConfig reads the environment, applies flag overrides and configures logging.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Load()

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("public") {
		cfg.PublicDir, _ = flags.GetString("public")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	log.Configure(log.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func buildUsecase(cfg config.Config, ws *workspace.Workspace) usecase.Usecase {
	d := usecase.Deps{
		Source:    ytdlp.New(cfg.YtDlpPath),
		Clipper:   ffmpeg.New(cfg.YtDlpPath, cfg.FFmpegPath),
		Workspace: ws,
	}
	if cfg.AIEnabled() {
		ai := openai.New(openai.Options{
			APIKey:          cfg.OpenAIAPIKey,
			BaseURL:         cfg.OpenAIBaseURL,
			ChatModel:       cfg.OpenAIChatModel,
			TranscribeModel: cfg.OpenAITranscribeModel,
		})
		d.Transcriber = ai
		d.Highlights = highlights.New(ai)
	}
	return usecase.New(d)
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := log.WithComponent("cli")

	for _, derr := range deps.Check(deps.Tools(cfg.YtDlpPath, cfg.FFmpegPath)...) {
		logger.Warn().Err(derr).Msg("⚠️  external tool missing; related endpoints will fail")
	}

	ws := workspace.New(cfg.TempDir, cfg.DownloadsDir)
	if err := ws.Ensure(); err != nil {
		return err
	}

	uc := buildUsecase(cfg, ws)
	handler := api.NewServer(uc, api.Options{
		DownloadsDir:       cfg.DownloadsDir,
		PublicDir:          cfg.PublicDir,
		BodyLimitBytes:     cfg.BodyLimitBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}).Handler()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweeper := workspace.NewSweeper(ws, workspace.SweeperConfig{
		Interval:   cfg.SweepInterval,
		MaxFileAge: cfg.MaxFileAge,
	})
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Int("port", cfg.Port).
			Bool("ai", cfg.AIEnabled()).
			Str(log.FieldDir, cfg.DownloadsDir).
			Msg("🚀 soclip listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("🛑 shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		sweeper.Stop(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func sweep(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ws := workspace.New(cfg.TempDir, cfg.DownloadsDir)
	workspace.NewSweeper(ws, workspace.SweeperConfig{
		Interval:   cfg.SweepInterval,
		MaxFileAge: cfg.MaxFileAge,
	}).SweepOnce()
	return nil
}
