package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/itzleon156-collab/So-clip/internal/log"
	"github.com/itzleon156-collab/So-clip/internal/metrics"
)

// SweeperConfig defines the retention policy.
type SweeperConfig struct {
	Interval   time.Duration
	MaxFileAge time.Duration
}

// Sweeper periodically removes aged entries from both working directories.
type Sweeper struct {
	ws     *Workspace
	conf   SweeperConfig
	logger zerolog.Logger
	now    func() time.Time
	cron   *cron.Cron
}

func NewSweeper(ws *Workspace, conf SweeperConfig) *Sweeper {
	return &Sweeper{
		ws:     ws,
		conf:   conf,
		logger: log.WithComponent("sweeper"),
		now:    time.Now,
	}
}

// Start schedules SweepOnce every Interval on a cron goroutine.
func (s *Sweeper) Start() error {
	if s.conf.Interval <= 0 {
		return errors.New("sweep interval must be > 0")
	}
	c := cron.New()
	if _, err := c.AddFunc("@every "+s.conf.Interval.String(), s.SweepOnce); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.logger.Info().Dur("interval", s.conf.Interval).Dur("max_age", s.conf.MaxFileAge).Msg("🧹 background sweeper started")
	return nil
}

// Stop halts scheduling and waits for a running sweep, bounded by ctx.
func (s *Sweeper) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.cron = nil
}

// SweepOnce performs exactly one pass over both directories.
func (s *Sweeper) SweepOnce() {
	cutoff := s.now().Add(-s.conf.MaxFileAge)
	for _, dir := range []string{s.ws.TempDir, s.ws.DownloadsDir} {
		removed := s.sweepDir(dir, cutoff)
		if removed > 0 {
			metrics.SweepRemovedFiles.WithLabelValues(filepath.Base(dir)).Add(float64(removed))
			s.logger.Info().Str(log.FieldDir, dir).Int("count", removed).Msg("🗑️  removed aged files")
		}
	}
	metrics.SweepRuns.Inc()
}

func (s *Sweeper) sweepDir(dir string, cutoff time.Time) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str(log.FieldDir, dir).Msg("sweep failed to read dir")
		}
		return 0
	}

	removed := 0
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			s.logger.Debug().Err(err).Str(log.FieldPath, path).Msg("sweep could not remove entry")
			continue
		}
		removed++
	}
	return removed
}
