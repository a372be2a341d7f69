// Package api exposes the clip pipeline over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itzleon156-collab/So-clip/internal/types"
	"github.com/itzleon156-collab/So-clip/internal/usecase"
)

// Service is the pipeline the handlers delegate to.
type Service interface {
	AIEnabled() bool
	FetchInfo(ctx context.Context, url string) (types.VideoInfo, error)
	Analyze(ctx context.Context, url string) (types.Analysis, error)
	CreateClip(ctx context.Context, req types.ClipRequest) (types.ClipResult, error)
}

type Options struct {
	DownloadsDir       string
	PublicDir          string
	BodyLimitBytes     int64
	RateLimitPerMinute int
}

type Server struct {
	svc      Service
	opts     Options
	validate *validator.Validate
	now      func() time.Time
}

func NewServer(svc Service, opts Options) *Server {
	return &Server{
		svc:      svc,
		opts:     opts,
		validate: newValidator(),
		now:      time.Now,
	}
}

// Handler builds the full route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(instrument)
	r.Use(middleware.Recoverer)
	if s.opts.BodyLimitBytes > 0 {
		r.Use(middleware.RequestSize(s.opts.BodyLimitBytes))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Group(func(r chi.Router) {
			r.Use(rateLimit(s.opts.RateLimitPerMinute))
			r.Post("/video-info", s.handleVideoInfo)
			r.Post("/analyze-video", s.handleAnalyze)
			r.Post("/create-clip", s.handleCreateClip)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Handle(usecase.DownloadsRoute+"*", downloadsHandler(usecase.DownloadsRoute, s.opts.DownloadsDir))
	if s.opts.PublicDir != "" {
		r.Handle("/*", publicHandler(s.opts.PublicDir))
	}
	return r
}
