package trend

import (
	"time"

	"github.com/gganddabbiya/trendix-ai-server/internal/store"
)

// LatestAtOrBefore returns the most recent snapshot whose date is at or
// before the given date. The series must be ascending by snapshot_date;
// gaps in the daily series are expected and tolerated.
func LatestAtOrBefore(series []store.MetricSnapshot, date time.Time) *store.MetricSnapshot {
	var ref *store.MetricSnapshot
	for i := range series {
		if series[i].SnapshotDate.After(date) {
			break
		}
		ref = &series[i]
	}
	return ref
}

// NearestEarlierDistinct scans snapshots at or before the given date for
// the most recent one whose view count differs from currentViews. When
// the naive "one period ago" snapshot equals the current value (a stale
// or duplicate crawl), this resolves a more meaningful prior baseline.
// Returns nil when no differing value exists; callers then treat the
// delta as zero rather than fabricating one.
func NearestEarlierDistinct(series []store.MetricSnapshot, currentViews int64, before time.Time) *store.MetricSnapshot {
	var ref *store.MetricSnapshot
	for i := range series {
		if series[i].SnapshotDate.After(before) {
			break
		}
		if series[i].ViewCount != currentViews {
			ref = &series[i]
		}
	}
	return ref
}
