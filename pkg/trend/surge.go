package trend

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/gganddabbiya/trendix-ai-server/internal/store"
	"github.com/gganddabbiya/trendix-ai-server/pkg/similarity"
)

// PriorEstimator synthesizes a plausible previous count for cold-start
// videos that have a large current count but no snapshot history. A nil
// estimator disables the synthesis.
type PriorEstimator func(current int64) int64

// RandomPrior estimates the prior as a uniform 70-90% fraction of the
// current count. This smooths cold-start noise in production but is
// non-deterministic; tests inject a fixed estimator instead.
func RandomPrior(r *rand.Rand) PriorEstimator {
	return func(current int64) int64 {
		return int64(float64(current) * (0.7 + r.Float64()*0.2))
	}
}

// coldStartThreshold is the minimum current view count before a missing
// prior is synthesized; below it a zero-growth signal is acceptable.
const coldStartThreshold = 1000

// Engine computes surge rankings and assembles featured buckets.
type Engine struct {
	store   store.Store
	sim     *similarity.Engine
	log     zerolog.Logger
	replies ReplyGenerator
	prior   PriorEstimator
	now     func() time.Time
}

// NewEngine creates a ranking engine. sim may be nil to disable the
// embedding-based steps (dedup, rerank, retrieval).
func NewEngine(s store.Store, sim *similarity.Engine, log zerolog.Logger) *Engine {
	return &Engine{
		store: s,
		sim:   sim,
		log:   log,
		prior: RandomPrior(rand.New(rand.NewSource(time.Now().UnixNano()))),
		now:   time.Now,
	}
}

// SetPriorEstimator replaces the cold-start prior synthesis. Pass nil to
// disable it.
func (e *Engine) SetPriorEstimator(p PriorEstimator) { e.prior = p }

// SetReplyGenerator enables the chat endpoint. Without one, chat answers
// fall back to a templated summary.
func (e *Engine) SetReplyGenerator(g ReplyGenerator) { e.replies = g }

// SetClock overrides the engine's clock.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// SurgeOptions controls the surge ranking window.
type SurgeOptions struct {
	Platform     string
	Limit        int // top N, default 30
	Days         int // candidate window in days, default 3
	VelocityDays int // previous snapshot offset in days, default 1
}

// SurgeRanking scores the windowed candidate set, sorts it descending by
// surge score and assigns a dense trending rank starting at 1. Each
// score is written back to the video's score record as a cache update;
// write failures are swallowed and never affect the returned ranking.
func (e *Engine) SurgeRanking(ctx context.Context, opts SurgeOptions) ([]store.RankedItem, error) {
	if opts.Limit <= 0 {
		opts.Limit = 30
	}
	if opts.Days <= 0 {
		opts.Days = 3
	}
	if opts.VelocityDays <= 0 {
		opts.VelocityDays = 1
	}

	items, err := e.store.SurgeCandidates(ctx, opts.Limit, opts.Days, opts.VelocityDays, opts.Platform)
	if err != nil {
		return nil, fmt.Errorf("surge candidates: %w", err)
	}

	now := e.now().UTC()
	for i := range items {
		e.scoreCandidate(ctx, &items[i], now)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SurgeScore > items[j].SurgeScore
	})

	for i := range items {
		items[i].TrendingRank = i + 1
		if err := e.store.UpsertTrendScore(ctx, items[i].VideoID, items[i].Platform, items[i].SurgeScore, now); err != nil {
			// Cache write only; the ranking must not depend on it.
			e.log.Debug().Err(err).Str("video_id", items[i].VideoID).Msg("trend score cache write failed")
		}
	}

	return items, nil
}

// scoreCandidate fills the surge fields of a single candidate.
func (e *Engine) scoreCandidate(ctx context.Context, item *store.RankedItem, now time.Time) {
	viewNow := item.ViewCount
	viewPrev := item.ViewCountPrev

	// A prev equal to now usually means a stale or duplicate crawl;
	// look further back for a snapshot with a differing value.
	if viewPrev == viewNow && viewPrev > 0 {
		if series, err := e.store.SnapshotSeries(ctx, item.VideoID, item.Platform); err == nil {
			if alt := NearestEarlierDistinct(series, viewNow, store.DateOnly(now.AddDate(0, 0, -1))); alt != nil {
				viewPrev = alt.ViewCount
			}
		}
	}

	likePrev := item.LikeCountPrev
	commentPrev := item.CommentCountPrev
	if viewPrev == 0 && viewNow > coldStartThreshold && e.prior != nil {
		viewPrev = e.prior(viewNow)
		likePrev = e.prior(item.LikeCount)
		commentPrev = e.prior(item.CommentCount)
	}

	deltaViews := viewNow - viewPrev
	growth := 0.0
	if viewPrev > 0 {
		growth = float64(deltaViews) / float64(viewPrev)
	}

	freshness, bonus, ageMin, ageHours := freshnessScore(item.PublishedAt, now)
	withBonus := freshness * bonus

	components := store.SurgeComponents{
		Growth:     growth * 100,
		Velocity:   item.ViewVelocity / 1000,
		Popularity: 0.1 * math.Log(float64(max(viewNow, 1))+10),
		Freshness:  withBonus * 50,
	}

	item.SurgeScore = components.Growth + components.Velocity + components.Popularity + components.Freshness
	item.SurgeComponents = &components
	item.FreshnessScore = freshness
	item.FreshnessBonus = bonus
	item.FreshnessWithBonus = withBonus
	item.AgeMinutes = ageMin
	item.AgeHours = ageHours
	item.ViewCountChange = deltaViews
	item.LikeCountChange = item.LikeCount - likePrev
	item.CommentCountChange = item.CommentCount - commentPrev
	item.GrowthRatePercentage = roundTo(growth*100, 1)
}

// freshnessScore computes exponential freshness decay with an age
// bracket bonus. Decay rate 0.05/h puts a 24h-old video at ~0.30 and a
// 48h-old one at ~0.09; a brand-new video scores exactly 1.0. Unknown
// publish time yields the neutral 0.5 / 1.0 defaults.
func freshnessScore(publishedAt *time.Time, now time.Time) (freshness, bonus float64, ageMinutes, ageHours *float64) {
	if publishedAt == nil {
		return 0.5, 1.0, nil, nil
	}

	ageMin := now.Sub(*publishedAt).Minutes()
	if ageMin < 0 {
		ageMin = 0
	}
	ageH := ageMin / 60

	freshness = math.Exp(-0.05 * ageH)
	switch {
	case ageH <= 24:
		bonus = 1.5
	case ageH <= 48:
		bonus = 1.2
	case ageH <= 72:
		bonus = 1.1
	default:
		bonus = 1.0
	}
	return freshness, bonus, &ageMin, &ageH
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
