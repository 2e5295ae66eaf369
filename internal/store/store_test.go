package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func addVideo(t *testing.T, s *SQLiteStore, id, channelID string, views int64, opts ...func(*Video)) {
	t.Helper()
	v := &Video{
		VideoID:      id,
		Platform:     "youtube",
		ChannelID:    channelID,
		ChannelTitle: "channel " + channelID,
		Title:        "video " + id,
		Category:     "music",
		CategoryID:   10,
		ViewCount:    views,
		LikeCount:    views / 10,
		CommentCount: views / 100,
		CrawledAt:    time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if err := s.UpsertVideo(context.Background(), v); err != nil {
		t.Fatalf("upsert video %s: %v", id, err)
	}
}

func addSnap(t *testing.T, s *SQLiteStore, id string, daysAgo int, views int64) {
	t.Helper()
	err := s.UpsertSnapshot(context.Background(), &MetricSnapshot{
		VideoID:      id,
		Platform:     "youtube",
		SnapshotDate: time.Now().UTC().AddDate(0, 0, -daysAgo),
		ViewCount:    views,
		LikeCount:    views / 10,
		CommentCount: views / 100,
	})
	if err != nil {
		t.Fatalf("upsert snapshot %s: %v", id, err)
	}
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2026, 8, 30, 23, 59, 59, 123, time.FixedZone("KST", 9*3600))
	got := DateOnly(in)
	want := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	// 23:59 KST is 14:59 UTC, so the UTC day is still Aug 30.
	if got.Year() != 2026 || got.Month() != 8 || got.Day() != 30 {
		t.Errorf("DateOnly = %v, want day %v", got, want.Day())
	}
	if got.Hour() != 0 || got.Minute() != 0 || got.Location() != time.UTC {
		t.Errorf("DateOnly = %v, want midnight UTC", got)
	}
}

func TestUpsertVideo(t *testing.T) {
	s := newTestStore(t)
	addVideo(t, s, "v1", "ch1", 100)
	addVideo(t, s, "v1", "ch1", 250)

	items, err := s.PopularVideos(context.Background(), 10, "")
	if err != nil {
		t.Fatalf("popular: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 video after re-upsert, got %d", len(items))
	}
	if items[0].ViewCount != 250 {
		t.Errorf("view count = %d, want 250", items[0].ViewCount)
	}
}

func TestUpsertSnapshotSameDay(t *testing.T) {
	s := newTestStore(t)
	addVideo(t, s, "v1", "ch1", 100)
	addSnap(t, s, "v1", 0, 100)
	addSnap(t, s, "v1", 0, 180)

	series, err := s.SnapshotSeries(context.Background(), "v1", "youtube")
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("same-day snapshots must collapse to one row, got %d", len(series))
	}
	if series[0].ViewCount != 180 {
		t.Errorf("view count = %d, want 180 (last write wins)", series[0].ViewCount)
	}
}

func TestPopularVideos(t *testing.T) {
	s := newTestStore(t)
	// Channel A averages 200 views: its 300-view video normalizes to 1.5.
	addVideo(t, s, "a1", "chA", 100)
	addVideo(t, s, "a2", "chA", 300)
	// Channel B's single 1000-view video normalizes to 1.0.
	addVideo(t, s, "b1", "chB", 1000)

	items, err := s.PopularVideos(context.Background(), 10, "youtube")
	if err != nil {
		t.Fatalf("popular: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 videos, got %d", len(items))
	}

	wantOrder := []string{"a2", "b1", "a1"}
	for i, id := range wantOrder {
		if items[i].VideoID != id {
			t.Errorf("position %d = %s, want %s", i, items[i].VideoID, id)
		}
	}
	if items[0].NormalizedViewScore != 1.5 {
		t.Errorf("normalized score = %v, want 1.5", items[0].NormalizedViewScore)
	}
}

func TestRisingVideos(t *testing.T) {
	s := newTestStore(t)
	addVideo(t, s, "up", "ch1", 200)
	addSnap(t, s, "up", 1, 100)
	addSnap(t, s, "up", 0, 200)

	addVideo(t, s, "flat", "ch2", 500)
	addSnap(t, s, "flat", 1, 500)
	addSnap(t, s, "flat", 0, 500)

	addVideo(t, s, "down", "ch3", 200)
	addSnap(t, s, "down", 1, 300)
	addSnap(t, s, "down", 0, 200)

	items, err := s.RisingVideos(context.Background(), 10, 1, "youtube")
	if err != nil {
		t.Fatalf("rising: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 videos, got %d", len(items))
	}

	if items[0].VideoID != "up" {
		t.Errorf("top rising = %s, want up", items[0].VideoID)
	}
	if items[0].ViewVelocity != 100 {
		t.Errorf("velocity = %v, want 100", items[0].ViewVelocity)
	}
	// A declining video is floored at zero, never negative.
	for _, item := range items {
		if item.ViewVelocity < 0 {
			t.Errorf("velocity for %s = %v, must not be negative", item.VideoID, item.ViewVelocity)
		}
	}
	// Flat outranks down on the view-count tiebreaker.
	if items[1].VideoID != "flat" || items[2].VideoID != "down" {
		t.Errorf("order = [%s %s], want [flat down]", items[1].VideoID, items[2].VideoID)
	}
}

func TestSurgeCandidates(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	recent := now.Add(-2 * time.Hour)
	addVideo(t, s, "hot", "ch1", 1500, func(v *Video) { v.PublishedAt = &recent })
	addSnap(t, s, "hot", 1, 1000)
	addSnap(t, s, "hot", 0, 2000)

	addVideo(t, s, "nosnap", "ch2", 500, func(v *Video) { v.PublishedAt = &recent })

	old := now.AddDate(0, 0, -10)
	addVideo(t, s, "stale", "ch3", 9000, func(v *Video) { v.PublishedAt = &old })

	future := now.AddDate(0, 0, 2)
	addVideo(t, s, "scheduled", "ch4", 7000, func(v *Video) { v.PublishedAt = &future })

	items, err := s.SurgeCandidates(context.Background(), 10, 3, 1, "youtube")
	if err != nil {
		t.Fatalf("surge candidates: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 candidates (stale and scheduled excluded), got %d", len(items))
	}

	if items[0].VideoID != "hot" {
		t.Errorf("top candidate = %s, want hot", items[0].VideoID)
	}
	if items[0].ViewCount != 2000 || items[0].ViewCountPrev != 1000 {
		t.Errorf("counts = %d/%d, want 2000/1000", items[0].ViewCount, items[0].ViewCountPrev)
	}
	if items[0].ViewVelocity != 1000 {
		t.Errorf("velocity = %v, want 1000", items[0].ViewVelocity)
	}

	// Without snapshots the video row supplies the current counts.
	if items[1].VideoID != "nosnap" || items[1].ViewCount != 500 || items[1].ViewCountPrev != 0 {
		t.Errorf("fallback candidate = %s %d/%d, want nosnap 500/0",
			items[1].VideoID, items[1].ViewCount, items[1].ViewCountPrev)
	}
}

func TestSnapshotHistory(t *testing.T) {
	s := newTestStore(t)

	t.Run("day-over-day increases", func(t *testing.T) {
		addVideo(t, s, "v1", "ch1", 250)
		addSnap(t, s, "v1", 3, 100)
		addSnap(t, s, "v1", 2, 150)
		addSnap(t, s, "v1", 1, 250)

		rows, err := s.SnapshotHistory(context.Background(), "v1", "youtube", 7)
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(rows))
		}
		wantIncreases := []int64{0, 50, 100}
		for i, want := range wantIncreases {
			if rows[i].DailyViewIncrease != want {
				t.Errorf("row %d increase = %d, want %d", i, rows[i].DailyViewIncrease, want)
			}
		}
	})

	t.Run("falls back to current counts without snapshots", func(t *testing.T) {
		addVideo(t, s, "fresh", "ch1", 42)

		rows, err := s.SnapshotHistory(context.Background(), "fresh", "youtube", 7)
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("expected 1 fallback row, got %d", len(rows))
		}
		if rows[0].ViewCount != 42 || rows[0].DailyViewIncrease != 0 {
			t.Errorf("fallback row = %+v", rows[0])
		}
	})

	t.Run("unknown video returns nothing", func(t *testing.T) {
		rows, err := s.SnapshotHistory(context.Background(), "ghost", "youtube", 7)
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("expected no rows, got %d", len(rows))
		}
	})
}

func TestHotCategoryTrends(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rank1, rank2 := 1, 2
	vol := int64(50)
	trends := []CategoryTrend{
		{Category: "music", Platform: "youtube", Date: now.AddDate(0, 0, -2), VideoCount: 5, Rank: &rank2},
		{Category: "music", Platform: "youtube", Date: now.AddDate(0, 0, -1), VideoCount: 8, Rank: &rank1},
		{Category: "gaming", Platform: "youtube", Date: now.AddDate(0, 0, -1), VideoCount: 3, SearchVolume: &vol},
	}
	for i := range trends {
		if err := s.UpsertCategoryTrend(ctx, &trends[i]); err != nil {
			t.Fatalf("upsert trend: %v", err)
		}
	}

	got, err := s.HotCategoryTrends(ctx, "youtube", 10)
	if err != nil {
		t.Fatalf("hot categories: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected latest row per category, got %d rows", len(got))
	}
	if got[0].Category != "music" || got[0].VideoCount != 8 {
		t.Errorf("first = %s (%d videos), want music (8)", got[0].Category, got[0].VideoCount)
	}
	if got[1].Category != "gaming" {
		t.Errorf("second = %s, want gaming (null rank sorts last)", got[1].Category)
	}
}

func TestDistinctCategories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	addVideo(t, s, "v1", "ch1", 10) // category "music"
	addVideo(t, s, "v2", "ch2", 10, func(v *Video) { v.Category = "" })
	if err := s.UpsertCategoryTrend(ctx, &CategoryTrend{Category: "gaming", Platform: "youtube", Date: time.Now()}); err != nil {
		t.Fatalf("upsert trend: %v", err)
	}

	got, err := s.DistinctCategories(ctx, 10)
	if err != nil {
		t.Fatalf("distinct categories: %v", err)
	}
	want := []string{"gaming", "music"}
	if len(got) != len(want) {
		t.Fatalf("categories = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("categories = %v, want %v", got, want)
		}
	}
}

func TestUpsertTrendScore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addVideo(t, s, "v1", "ch1", 100)

	if err := s.UpsertTrendScore(ctx, "v1", "youtube", 42.5, time.Now().UTC()); err != nil {
		t.Fatalf("upsert score: %v", err)
	}
	if err := s.UpsertTrendScore(ctx, "v1", "youtube", 99.9, time.Now().UTC()); err != nil {
		t.Fatalf("re-upsert score: %v", err)
	}

	items, err := s.PopularVideos(ctx, 10, "youtube")
	if err != nil {
		t.Fatalf("popular: %v", err)
	}
	if items[0].ScoreTrend == nil || *items[0].ScoreTrend != 99.9 {
		t.Errorf("trend score = %v, want 99.9", items[0].ScoreTrend)
	}
}
