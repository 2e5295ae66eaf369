package trend

import (
	"testing"

	"github.com/gganddabbiya/trendix-ai-server/internal/store"
)

func snap(daysAgo int, views int64) store.MetricSnapshot {
	return store.MetricSnapshot{
		SnapshotDate: store.DateOnly(testNow.AddDate(0, 0, -daysAgo)),
		ViewCount:    views,
	}
}

func TestLatestAtOrBefore(t *testing.T) {
	series := []store.MetricSnapshot{snap(5, 100), snap(3, 200), snap(1, 300)}

	t.Run("picks most recent at or before the date", func(t *testing.T) {
		got := LatestAtOrBefore(series, store.DateOnly(testNow.AddDate(0, 0, -2)))
		if got == nil || got.ViewCount != 200 {
			t.Errorf("got %+v, want snapshot with 200 views", got)
		}
	})

	t.Run("exact date matches", func(t *testing.T) {
		got := LatestAtOrBefore(series, store.DateOnly(testNow.AddDate(0, 0, -3)))
		if got == nil || got.ViewCount != 200 {
			t.Errorf("got %+v, want snapshot with 200 views", got)
		}
	})

	t.Run("nothing before the date", func(t *testing.T) {
		if got := LatestAtOrBefore(series, store.DateOnly(testNow.AddDate(0, 0, -10))); got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("empty series", func(t *testing.T) {
		if got := LatestAtOrBefore(nil, testNow); got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})
}

func TestNearestEarlierDistinct(t *testing.T) {
	t.Run("skips snapshots equal to the current value", func(t *testing.T) {
		series := []store.MetricSnapshot{snap(5, 200), snap(2, 300), snap(1, 300)}
		got := NearestEarlierDistinct(series, 300, store.DateOnly(testNow.AddDate(0, 0, -1)))
		if got == nil || got.ViewCount != 200 {
			t.Errorf("got %+v, want snapshot with 200 views", got)
		}
	})

	t.Run("respects the date boundary", func(t *testing.T) {
		series := []store.MetricSnapshot{snap(5, 200), snap(1, 250)}
		got := NearestEarlierDistinct(series, 300, store.DateOnly(testNow.AddDate(0, 0, -3)))
		if got == nil || got.ViewCount != 200 {
			t.Errorf("got %+v, want snapshot with 200 views", got)
		}
	})

	t.Run("no differing value returns nil", func(t *testing.T) {
		series := []store.MetricSnapshot{snap(3, 300), snap(1, 300)}
		if got := NearestEarlierDistinct(series, 300, store.DateOnly(testNow)); got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})
}
