package trend

import (
	"context"
	"testing"

	"github.com/gganddabbiya/trendix-ai-server/internal/store"
)

func TestVideosByCategory(t *testing.T) {
	t.Run("computes count changes from previous snapshot", func(t *testing.T) {
		item := feedItem("v1", "t1", "music", 1200)
		item.ViewCountPrev = 1000
		item.LikeCount = 120
		item.LikeCountPrev = 100
		fs := &fakeStore{categoryItems: []store.RankedItem{item}}
		e := newTestEngine(fs)

		items, err := e.VideosByCategory(context.Background(), CategoryOptions{CategoryID: 10})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := items[0]
		if got.ViewCountChange != 200 {
			t.Errorf("view change = %d, want 200", got.ViewCountChange)
		}
		if got.LikeCountChange != 20 {
			t.Errorf("like change = %d, want 20", got.LikeCountChange)
		}
		if got.GrowthRatePercentage != 20.0 {
			t.Errorf("growth pct = %v, want 20", got.GrowthRatePercentage)
		}
	})

	t.Run("stale previous snapshot resolves an earlier baseline", func(t *testing.T) {
		item := feedItem("v2", "t2", "music", 3000)
		item.ViewCountPrev = 3000
		fs := &fakeStore{
			categoryItems: []store.RankedItem{item},
			series: map[string][]store.MetricSnapshot{
				"v2": {
					{VideoID: "v2", SnapshotDate: store.DateOnly(testNow.AddDate(0, 0, -4)), ViewCount: 2400},
					{VideoID: "v2", SnapshotDate: store.DateOnly(testNow.AddDate(0, 0, -1)), ViewCount: 3000},
				},
			},
		}
		e := newTestEngine(fs)

		items, err := e.VideosByCategory(context.Background(), CategoryOptions{CategoryID: 10})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if items[0].ViewCountChange != 600 {
			t.Errorf("view change = %d, want 600", items[0].ViewCountChange)
		}
		if items[0].GrowthRatePercentage != 25.0 {
			t.Errorf("growth pct = %v, want 25", items[0].GrowthRatePercentage)
		}
	})

	t.Run("no history keeps zero growth", func(t *testing.T) {
		item := feedItem("v3", "t3", "music", 500)
		fs := &fakeStore{categoryItems: []store.RankedItem{item}}
		e := newTestEngine(fs)

		items, err := e.VideosByCategory(context.Background(), CategoryOptions{CategoryID: 10})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if items[0].ViewCountChange != 500 || items[0].GrowthRatePercentage != 0 {
			t.Errorf("change/growth = %d/%v, want 500/0", items[0].ViewCountChange, items[0].GrowthRatePercentage)
		}
	})
}
