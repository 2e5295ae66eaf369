package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Video is the static metadata record for a single video, plus the
// denormalized current metric triple used as a fallback when no
// snapshot has been ingested yet.
type Video struct {
	VideoID      string     `db:"video_id" json:"video_id"`
	Platform     string     `db:"platform" json:"platform"`
	ChannelID    string     `db:"channel_id" json:"channel_id"`
	ChannelTitle string     `db:"channel_title" json:"channel_username"`
	Title        string     `db:"title" json:"title"`
	Description  string     `db:"description" json:"description"`
	Tags         string     `db:"tags" json:"tags"`
	CategoryID   int        `db:"category_id" json:"category_id"`
	Category     string     `db:"category" json:"category"`
	DurationSec  int        `db:"duration_sec" json:"duration_sec"`
	ThumbnailURL string     `db:"thumbnail_url" json:"thumbnail_url"`
	IsShorts     bool       `db:"is_shorts" json:"is_shorts"`
	ViewCount    int64      `db:"view_count" json:"view_count"`
	LikeCount    int64      `db:"like_count" json:"like_count"`
	CommentCount int64      `db:"comment_count" json:"comment_count"`
	PublishedAt  *time.Time `db:"published_at" json:"published_at"`
	CrawledAt    time.Time  `db:"crawled_at" json:"crawled_at"`
}

// MetricSnapshot is one point-in-time metric reading for a video.
// One row per video per platform per calendar day; same-day re-crawls
// overwrite the counts for the existing key.
type MetricSnapshot struct {
	ID           int64     `db:"id" json:"-"`
	VideoID      string    `db:"video_id" json:"video_id"`
	Platform     string    `db:"platform" json:"platform"`
	SnapshotDate time.Time `db:"snapshot_date" json:"snapshot_date"`
	ViewCount    int64     `db:"view_count" json:"view_count"`
	LikeCount    int64     `db:"like_count" json:"like_count"`
	CommentCount int64     `db:"comment_count" json:"comment_count"`
}

// SnapshotDelta is a history row enriched with day-over-day increases.
type SnapshotDelta struct {
	SnapshotDate         time.Time `db:"snapshot_date" json:"snapshot_date"`
	ViewCount            int64     `db:"view_count" json:"view_count"`
	LikeCount            int64     `db:"like_count" json:"like_count"`
	CommentCount         int64     `db:"comment_count" json:"comment_count"`
	DailyViewIncrease    int64     `db:"daily_view_increase" json:"daily_view_increase"`
	DailyLikeIncrease    int64     `db:"daily_like_increase" json:"daily_like_increase"`
	DailyCommentIncrease int64     `db:"daily_comment_increase" json:"daily_comment_increase"`
}

// CategoryTrend is the per-(category, platform, date) rollup maintained
// by an external aggregation job. Read-only to the ranking engine.
type CategoryTrend struct {
	ID             int64     `db:"id" json:"-"`
	Category       string    `db:"category" json:"category"`
	Platform       string    `db:"platform" json:"platform"`
	Date           time.Time `db:"date" json:"date"`
	VideoCount     int       `db:"video_count" json:"video_count"`
	VideoCountPrev int       `db:"video_count_prev" json:"video_count_prev"`
	AvgTotalScore  *float64  `db:"avg_total_score" json:"avg_total_score"`
	SearchVolume   *int64    `db:"search_volume" json:"search_volume"`
	GrowthRate     *float64  `db:"growth_rate" json:"growth_rate"`
	Rank           *int      `db:"rank" json:"rank"`
}

// SurgeComponents breaks a surge score into its parts for explainability.
type SurgeComponents struct {
	Growth     float64 `json:"growth_factor"`
	Velocity   float64 `json:"velocity_factor"`
	Popularity float64 `json:"popularity_factor"`
	Freshness  float64 `json:"freshness_factor"`
}

// RankedItem is a video enriched with computed ranking fields. It is the
// unit returned by every ranking operation. Fields with a db tag are
// populated by store queries; the rest are filled in by the trend engine.
type RankedItem struct {
	Video

	EngagementScore *float64 `db:"engagement_score" json:"engagement_score"`
	ScoreSentiment  *float64 `db:"score_sentiment" json:"score_sentiment"`
	ScoreTrend      *float64 `db:"score_trend" json:"score_trend"`
	TotalScore      *float64 `db:"total_score" json:"total_score"`

	ChannelAvgView      float64 `db:"channel_avg_view" json:"channel_avg_view,omitempty"`
	NormalizedViewScore float64 `db:"normalized_view_score" json:"normalized_view_score,omitempty"`
	ViewVelocity        float64 `db:"view_velocity" json:"view_velocity,omitempty"`
	LikeVelocity        float64 `db:"like_velocity" json:"like_velocity,omitempty"`
	CommentVelocity     float64 `db:"comment_velocity" json:"comment_velocity,omitempty"`

	// Previous snapshot counts, consumed by the surge scorer and
	// stripped from API responses.
	ViewCountPrev    int64 `db:"view_count_prev" json:"-"`
	LikeCountPrev    int64 `db:"like_count_prev" json:"-"`
	CommentCountPrev int64 `db:"comment_count_prev" json:"-"`

	ViewCountChange      int64   `db:"-" json:"view_count_change"`
	LikeCountChange      int64   `db:"-" json:"like_count_change"`
	CommentCountChange   int64   `db:"-" json:"comment_count_change"`
	GrowthRatePercentage float64 `db:"-" json:"growth_rate_percentage"`

	AgeMinutes         *float64         `db:"-" json:"age_minutes,omitempty"`
	AgeHours           *float64         `db:"-" json:"age_hours,omitempty"`
	FreshnessScore     float64          `db:"-" json:"freshness_score,omitempty"`
	FreshnessBonus     float64          `db:"-" json:"freshness_bonus,omitempty"`
	FreshnessWithBonus float64          `db:"-" json:"freshness_score_with_bonus,omitempty"`
	SurgeScore         float64          `db:"-" json:"surge_score,omitempty"`
	TrendingRank       int              `db:"-" json:"trending_rank,omitempty"`
	SurgeComponents    *SurgeComponents `db:"-" json:"surge_components,omitempty"`
}

// Store is the persistence interface consumed by the ranking engine.
type Store interface {
	UpsertVideo(ctx context.Context, v *Video) error
	UpsertSnapshot(ctx context.Context, s *MetricSnapshot) error
	UpsertCategoryTrend(ctx context.Context, ct *CategoryTrend) error
	UpsertTrendScore(ctx context.Context, videoID, platform string, score float64, updatedAt time.Time) error

	SnapshotSeries(ctx context.Context, videoID, platform string) ([]MetricSnapshot, error)
	SnapshotHistory(ctx context.Context, videoID, platform string, days int) ([]SnapshotDelta, error)
	ChannelAverageViewCount(ctx context.Context, channelID string) (float64, error)

	PopularVideos(ctx context.Context, limit int, platform string) ([]RankedItem, error)
	RisingVideos(ctx context.Context, limit, velocityDays int, platform string) ([]RankedItem, error)
	SurgeCandidates(ctx context.Context, limit, days, velocityDays int, platform string) ([]RankedItem, error)
	VideosByCategoryID(ctx context.Context, categoryID, limit, days int, platform string) ([]RankedItem, error)
	HotCategoryTrends(ctx context.Context, platform string, limit int) ([]CategoryTrend, error)
	DistinctCategories(ctx context.Context, limit int) ([]string, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DateOnly truncates a time to its UTC calendar day. Snapshot dates are
// always stored normalized so the same-day upsert key matches.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *SQLiteStore) UpsertVideo(ctx context.Context, v *Video) error {
	if v.Platform == "" {
		v.Platform = "youtube"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO videos (video_id, platform, channel_id, channel_title, title, description, tags,
			category_id, category, duration_sec, thumbnail_url, is_shorts,
			view_count, like_count, comment_count, published_at, crawled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			view_count = excluded.view_count,
			like_count = excluded.like_count,
			comment_count = excluded.comment_count,
			channel_title = excluded.channel_title,
			category = excluded.category,
			crawled_at = excluded.crawled_at
	`, v.VideoID, v.Platform, v.ChannelID, v.ChannelTitle, v.Title, v.Description, v.Tags,
		v.CategoryID, v.Category, v.DurationSec, v.ThumbnailURL, v.IsShorts,
		v.ViewCount, v.LikeCount, v.CommentCount, v.PublishedAt, v.CrawledAt)
	if err != nil {
		return fmt.Errorf("upsert video %s: %w", v.VideoID, err)
	}
	return nil
}

func (s *SQLiteStore) UpsertSnapshot(ctx context.Context, snap *MetricSnapshot) error {
	if snap.Platform == "" {
		snap.Platform = "youtube"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO video_metrics_snapshots (video_id, platform, snapshot_date, view_count, like_count, comment_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id, platform, snapshot_date) DO UPDATE SET
			view_count = excluded.view_count,
			like_count = excluded.like_count,
			comment_count = excluded.comment_count
	`, snap.VideoID, snap.Platform, DateOnly(snap.SnapshotDate), snap.ViewCount, snap.LikeCount, snap.CommentCount)
	if err != nil {
		return fmt.Errorf("upsert snapshot %s@%s: %w", snap.VideoID, snap.SnapshotDate.Format("2006-01-02"), err)
	}
	return nil
}

func (s *SQLiteStore) UpsertCategoryTrend(ctx context.Context, ct *CategoryTrend) error {
	if ct.Platform == "" {
		ct.Platform = "youtube"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category_trends (category, platform, date, video_count, video_count_prev,
			avg_total_score, search_volume, growth_rate, rank)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(category, platform, date) DO UPDATE SET
			video_count = excluded.video_count,
			video_count_prev = excluded.video_count_prev,
			avg_total_score = excluded.avg_total_score,
			search_volume = excluded.search_volume,
			growth_rate = excluded.growth_rate,
			rank = excluded.rank
	`, ct.Category, ct.Platform, DateOnly(ct.Date), ct.VideoCount, ct.VideoCountPrev,
		ct.AvgTotalScore, ct.SearchVolume, ct.GrowthRate, ct.Rank)
	if err != nil {
		return fmt.Errorf("upsert category trend %s@%s: %w", ct.Category, ct.Date.Format("2006-01-02"), err)
	}
	return nil
}

// UpsertTrendScore caches the surge scorer's composite output. Idempotent
// by video_id; callers treat failures as non-fatal.
func (s *SQLiteStore) UpsertTrendScore(ctx context.Context, videoID, platform string, score float64, updatedAt time.Time) error {
	if platform == "" {
		platform = "youtube"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO video_scores (video_id, platform, trend_score, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			trend_score = excluded.trend_score,
			updated_at = excluded.updated_at
	`, videoID, platform, score, updatedAt)
	if err != nil {
		return fmt.Errorf("upsert trend score %s: %w", videoID, err)
	}
	return nil
}

func (s *SQLiteStore) SnapshotSeries(ctx context.Context, videoID, platform string) ([]MetricSnapshot, error) {
	var snaps []MetricSnapshot
	err := s.db.SelectContext(ctx, &snaps, `
		SELECT id, video_id, platform, snapshot_date, view_count, like_count, comment_count
		FROM video_metrics_snapshots
		WHERE video_id = ? AND (? = '' OR platform = ?)
		ORDER BY snapshot_date
	`, videoID, platform, platform)
	if err != nil {
		return nil, fmt.Errorf("snapshot series %s: %w", videoID, err)
	}
	return snaps, nil
}

func (s *SQLiteStore) SnapshotHistory(ctx context.Context, videoID, platform string, days int) ([]SnapshotDelta, error) {
	if days <= 0 {
		days = 7
	}
	if platform == "" {
		platform = "youtube"
	}
	since := DateOnly(time.Now().UTC().AddDate(0, 0, -days))

	var rows []SnapshotDelta
	err := s.db.SelectContext(ctx, &rows, `
		SELECT
			snapshot_date,
			view_count,
			like_count,
			comment_count,
			COALESCE(view_count - LAG(view_count) OVER (ORDER BY snapshot_date), 0) AS daily_view_increase,
			COALESCE(like_count - LAG(like_count) OVER (ORDER BY snapshot_date), 0) AS daily_like_increase,
			COALESCE(comment_count - LAG(comment_count) OVER (ORDER BY snapshot_date), 0) AS daily_comment_increase
		FROM video_metrics_snapshots
		WHERE video_id = ? AND platform = ? AND snapshot_date >= ?
		ORDER BY snapshot_date
	`, videoID, platform, since)
	if err != nil {
		return nil, fmt.Errorf("snapshot history %s: %w", videoID, err)
	}
	if len(rows) > 0 {
		return rows, nil
	}

	// No snapshots yet: fall back to the current video counts.
	var v Video
	err = s.db.GetContext(ctx, &v, `
		SELECT video_id, platform, channel_id, channel_title, title, description, tags,
			category_id, category, duration_sec, thumbnail_url, is_shorts,
			view_count, like_count, comment_count, published_at, crawled_at
		FROM videos WHERE video_id = ? AND platform = ?
	`, videoID, platform)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot history fallback %s: %w", videoID, err)
	}
	return []SnapshotDelta{{
		SnapshotDate: DateOnly(time.Now().UTC()),
		ViewCount:    v.ViewCount,
		LikeCount:    v.LikeCount,
		CommentCount: v.CommentCount,
	}}, nil
}

func (s *SQLiteStore) ChannelAverageViewCount(ctx context.Context, channelID string) (float64, error) {
	var avg float64
	err := s.db.GetContext(ctx, &avg,
		"SELECT COALESCE(AVG(view_count), 0) FROM videos WHERE channel_id = ?", channelID)
	if err != nil {
		return 0, fmt.Errorf("channel avg view %s: %w", channelID, err)
	}
	return avg, nil
}

// baseColumns joins videos against video_scores and computes the
// per-channel average view count used for channel-size normalization.
const baseColumns = `
	SELECT
		v.video_id, v.platform, v.channel_id, v.channel_title, v.title,
		v.description, v.tags, v.category_id, v.category, v.duration_sec,
		v.thumbnail_url, v.is_shorts, v.view_count, v.like_count,
		v.comment_count, v.published_at, v.crawled_at,
		sc.engagement_score,
		sc.sentiment_score AS score_sentiment,
		sc.trend_score AS score_trend,
		sc.total_score,
		AVG(v.view_count) OVER (PARTITION BY v.channel_id) AS channel_avg_view
	FROM videos v
	LEFT JOIN video_scores sc ON sc.video_id = v.video_id
	WHERE (? = '' OR v.platform = ?)`

// PopularVideos ranks by channel-size-normalized popularity. A channel
// with a single video normalizes to its raw view count.
func (s *SQLiteStore) PopularVideos(ctx context.Context, limit int, platform string) ([]RankedItem, error) {
	if limit <= 0 {
		limit = 5
	}

	var items []RankedItem
	err := s.db.SelectContext(ctx, &items, `
		WITH base AS (`+baseColumns+`)
		SELECT base.*,
			CASE WHEN channel_avg_view > 0
				THEN CAST(view_count AS REAL) / channel_avg_view
				ELSE CAST(view_count AS REAL)
			END AS normalized_view_score
		FROM base
		ORDER BY normalized_view_score DESC,
			COALESCE(total_score, view_count) DESC,
			view_count DESC,
			crawled_at DESC
		LIMIT ?
	`, platform, platform, limit)
	if err != nil {
		return nil, fmt.Errorf("popular videos: %w", err)
	}
	return items, nil
}

// RisingVideos ranks by snapshot-derived daily view velocity. Velocity
// is floored at zero: a declining video never outranks a flat one.
func (s *SQLiteStore) RisingVideos(ctx context.Context, limit, velocityDays int, platform string) ([]RankedItem, error) {
	if limit <= 0 {
		limit = 5
	}
	if velocityDays <= 0 {
		velocityDays = 1
	}
	prevCutoff := DateOnly(time.Now().UTC().AddDate(0, 0, -velocityDays))

	var items []RankedItem
	err := s.db.SelectContext(ctx, &items, `
		WITH base AS (`+baseColumns+`)
		SELECT base.*,
			CAST(MAX(
				COALESCE((SELECT s.view_count FROM video_metrics_snapshots s
					WHERE s.video_id = base.video_id AND s.platform = base.platform
					ORDER BY s.snapshot_date DESC LIMIT 1), view_count, 0)
				-
				COALESCE((SELECT s.view_count FROM video_metrics_snapshots s
					WHERE s.video_id = base.video_id AND s.platform = base.platform
						AND s.snapshot_date <= ?
					ORDER BY s.snapshot_date DESC LIMIT 1), 0),
				0) AS REAL) / ? AS view_velocity,
			CASE WHEN channel_avg_view > 0
				THEN CAST(view_count AS REAL) / channel_avg_view
				ELSE CAST(view_count AS REAL)
			END AS normalized_view_score
		FROM base
		ORDER BY view_velocity DESC,
			normalized_view_score DESC,
			COALESCE(total_score, view_count) DESC,
			crawled_at DESC
		LIMIT ?
	`, platform, platform, prevCutoff, velocityDays, limit)
	if err != nil {
		return nil, fmt.Errorf("rising videos: %w", err)
	}
	return items, nil
}

// SurgeCandidates returns the windowed candidate set for surge scoring:
// videos published or crawled within the last `days` days, with current
// and previous snapshot counts resolved. The previous snapshot is the
// most recent one at or before now minus velocityDays.
func (s *SQLiteStore) SurgeCandidates(ctx context.Context, limit, days, velocityDays int, platform string) ([]RankedItem, error) {
	if limit <= 0 {
		limit = 30
	}
	if days <= 0 {
		days = 3
	}
	if velocityDays <= 0 {
		velocityDays = 1
	}
	now := time.Now().UTC()
	from := DateOnly(now.AddDate(0, 0, -(days - 1)))
	until := DateOnly(now).AddDate(0, 0, 1)
	prevCutoff := DateOnly(now.AddDate(0, 0, -velocityDays))

	var items []RankedItem
	err := s.db.SelectContext(ctx, &items, `
		SELECT
			v.video_id, v.platform, v.channel_id, v.channel_title, v.title,
			v.description, v.tags, v.category_id, v.category, v.duration_sec,
			v.thumbnail_url, v.is_shorts, v.published_at, v.crawled_at,
			COALESCE(curr.view_count, v.view_count, 0) AS view_count,
			COALESCE(curr.like_count, v.like_count, 0) AS like_count,
			COALESCE(curr.comment_count, v.comment_count, 0) AS comment_count,
			COALESCE(prev.view_count, 0) AS view_count_prev,
			COALESCE(prev.like_count, 0) AS like_count_prev,
			COALESCE(prev.comment_count, 0) AS comment_count_prev,
			CAST(COALESCE(curr.view_count, v.view_count, 0) - COALESCE(prev.view_count, 0) AS REAL) / ? AS view_velocity,
			CAST(COALESCE(curr.like_count, v.like_count, 0) - COALESCE(prev.like_count, 0) AS REAL) / ? AS like_velocity,
			CAST(COALESCE(curr.comment_count, v.comment_count, 0) - COALESCE(prev.comment_count, 0) AS REAL) / ? AS comment_velocity,
			sc.engagement_score,
			sc.sentiment_score AS score_sentiment,
			sc.trend_score AS score_trend,
			sc.total_score
		FROM videos v
		LEFT JOIN video_scores sc ON sc.video_id = v.video_id
		LEFT JOIN (
			SELECT video_id, platform, view_count, like_count, comment_count,
				ROW_NUMBER() OVER (PARTITION BY video_id, platform ORDER BY snapshot_date DESC) AS rn
			FROM video_metrics_snapshots
		) curr ON curr.video_id = v.video_id AND curr.platform = v.platform AND curr.rn = 1
		LEFT JOIN (
			SELECT video_id, platform, view_count, like_count, comment_count,
				ROW_NUMBER() OVER (PARTITION BY video_id, platform ORDER BY snapshot_date DESC) AS rn
			FROM video_metrics_snapshots
			WHERE snapshot_date <= ?
		) prev ON prev.video_id = v.video_id AND prev.platform = v.platform AND prev.rn = 1
		WHERE COALESCE(v.published_at, v.crawled_at) >= ?
			AND COALESCE(v.published_at, v.crawled_at) < ?
			AND (? = '' OR v.platform = ?)
		ORDER BY
			CASE WHEN COALESCE(curr.view_count, v.view_count, 0) - COALESCE(prev.view_count, 0) > 0 THEN 1 ELSE 0 END DESC,
			view_velocity DESC,
			comment_velocity DESC,
			like_velocity DESC,
			COALESCE(curr.view_count, v.view_count, 0) DESC,
			COALESCE(total_score, 0) DESC,
			v.published_at DESC
		LIMIT ?
	`, velocityDays, velocityDays, velocityDays, prevCutoff, from, until, platform, platform, limit)
	if err != nil {
		return nil, fmt.Errorf("surge candidates: %w", err)
	}
	return items, nil
}

// VideosByCategoryID lists recent videos for a category with current and
// previous snapshot counts. The previous snapshot is the one just before
// the latest, mirroring the day-over-day comparison in the UI.
func (s *SQLiteStore) VideosByCategoryID(ctx context.Context, categoryID, limit, days int, platform string) ([]RankedItem, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT
			v.video_id, v.platform, v.channel_id, v.channel_title, v.title,
			v.description, v.tags, v.category_id, v.category, v.duration_sec,
			v.thumbnail_url, v.is_shorts, v.published_at, v.crawled_at,
			COALESCE(curr.view_count, v.view_count, 0) AS view_count,
			COALESCE(curr.like_count, v.like_count, 0) AS like_count,
			COALESCE(curr.comment_count, v.comment_count, 0) AS comment_count,
			COALESCE(prev.view_count, 0) AS view_count_prev,
			COALESCE(prev.like_count, 0) AS like_count_prev,
			COALESCE(prev.comment_count, 0) AS comment_count_prev,
			sc.engagement_score,
			sc.sentiment_score AS score_sentiment,
			sc.trend_score AS score_trend,
			sc.total_score
		FROM videos v
		LEFT JOIN video_scores sc ON sc.video_id = v.video_id
		LEFT JOIN (
			SELECT video_id, platform, view_count, like_count, comment_count,
				ROW_NUMBER() OVER (PARTITION BY video_id, platform ORDER BY snapshot_date DESC) AS rn
			FROM video_metrics_snapshots
		) curr ON curr.video_id = v.video_id AND curr.platform = v.platform AND curr.rn = 1
		LEFT JOIN (
			SELECT video_id, platform, view_count, like_count, comment_count,
				ROW_NUMBER() OVER (PARTITION BY video_id, platform ORDER BY snapshot_date DESC) AS rn
			FROM video_metrics_snapshots
		) prev ON prev.video_id = v.video_id AND prev.platform = v.platform AND prev.rn = 2
		WHERE v.category_id = ?
			AND (? = '' OR v.platform = ?)`
	args := []any{categoryID, platform, platform}

	if days > 0 {
		query += " AND v.published_at >= ?"
		args = append(args, DateOnly(time.Now().UTC().AddDate(0, 0, -days)))
	}

	query += `
		ORDER BY COALESCE(total_score, score_sentiment, score_trend, view_count) DESC,
			v.crawled_at DESC
		LIMIT ?`
	args = append(args, limit)

	var items []RankedItem
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("videos by category %d: %w", categoryID, err)
	}
	return items, nil
}

// HotCategoryTrends returns the latest aggregation-date rollup per
// category, ranked.
func (s *SQLiteStore) HotCategoryTrends(ctx context.Context, platform string, limit int) ([]CategoryTrend, error) {
	if limit <= 0 {
		limit = 20
	}
	var trends []CategoryTrend
	err := s.db.SelectContext(ctx, &trends, `
		SELECT ct.id, ct.category, ct.platform, ct.date, ct.video_count, ct.video_count_prev,
			ct.avg_total_score, ct.search_volume, ct.growth_rate, ct.rank
		FROM category_trends ct
		JOIN (
			SELECT category, platform, MAX(date) AS max_date
			FROM category_trends
			WHERE (? = '' OR platform = ?)
			GROUP BY category, platform
		) latest ON ct.category = latest.category
			AND ct.platform = latest.platform
			AND ct.date = latest.max_date
		WHERE (? = '' OR ct.platform = ?)
		ORDER BY (ct.rank IS NULL), ct.rank ASC,
			(ct.search_volume IS NULL), ct.search_volume DESC
		LIMIT ?
	`, platform, platform, platform, platform, limit)
	if err != nil {
		return nil, fmt.Errorf("hot category trends: %w", err)
	}
	return trends, nil
}

func (s *SQLiteStore) DistinctCategories(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	var categories []string
	err := s.db.SelectContext(ctx, &categories, `
		SELECT category FROM (
			SELECT DISTINCT category FROM videos WHERE category <> ''
			UNION
			SELECT DISTINCT category FROM category_trends
		)
		ORDER BY category
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	return categories, nil
}
