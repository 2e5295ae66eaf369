package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gganddabbiya/trendix-ai-server/internal/store"
	"github.com/gganddabbiya/trendix-ai-server/pkg/alert"
	"github.com/gganddabbiya/trendix-ai-server/pkg/trend"
)

// Scheduler periodically recomputes the surge ranking and alerts on
// videos that cross the surge threshold.
type Scheduler struct {
	engine   *trend.Engine
	alertMgr *alert.Manager
	log      zerolog.Logger

	interval time.Duration
	minScore float64
	cooldown time.Duration
	opts     trend.SurgeOptions

	// alerted tracks the last alert time per video to suppress repeats
	// within the cooldown window. In-memory only: a restart may re-alert.
	alerted map[string]time.Time
}

// New creates a scheduler.
func New(engine *trend.Engine, alertMgr *alert.Manager, opts trend.SurgeOptions, interval time.Duration, minScore float64, cooldown time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if minScore <= 0 {
		minScore = 100
	}
	if cooldown <= 0 {
		cooldown = 6 * time.Hour
	}
	return &Scheduler{
		engine:   engine,
		alertMgr: alertMgr,
		log:      log,
		interval: interval,
		minScore: minScore,
		cooldown: cooldown,
		opts:     opts,
		alerted:  make(map[string]time.Time),
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start.
	s.log.Info().Dur("interval", s.interval).Msg("scheduler: initial surge ranking")
	s.rankAndAlert(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler: stopped")
			return ctx.Err()
		case <-ticker.C:
			s.rankAndAlert(ctx)
		}
	}
}

func (s *Scheduler) rankAndAlert(ctx context.Context) {
	items, err := s.engine.SurgeRanking(ctx, s.opts)
	if err != nil {
		s.log.Error().Err(err).Msg("surge ranking failed")
		return
	}
	s.log.Info().Int("candidates", len(items)).Msg("surge ranking computed")

	if s.alertMgr == nil || !s.alertMgr.HasNotifiers() {
		return
	}

	now := time.Now()
	var surging []store.RankedItem
	for _, item := range items {
		if item.SurgeScore < s.minScore {
			continue
		}
		if last, ok := s.alerted[item.VideoID]; ok && now.Sub(last) < s.cooldown {
			continue
		}
		surging = append(surging, item)
	}
	if len(surging) == 0 {
		return
	}

	n := &alert.Notification{
		Title:    "Surging videos detected",
		Body:     fmt.Sprintf("%d videos crossed surge score %.0f", len(surging), s.minScore),
		Platform: s.opts.Platform,
		Videos:   surging,
	}
	if err := s.alertMgr.Broadcast(ctx, n); err != nil {
		s.log.Error().Err(err).Msg("surge alert broadcast failed")
		return
	}
	for _, item := range surging {
		s.alerted[item.VideoID] = now
	}
	s.log.Info().Int("videos", len(surging)).Msg("surge alert sent")
}
