package trend

import (
	"sort"
	"time"
)

// ViewSample is a single point-in-time view count measurement, e.g. a
// crawler reading taken every few minutes.
type ViewSample struct {
	Timestamp time.Time
	ViewCount int64
}

// SurgeFeatures is the per-video feature bundle used for spike
// detection. Nil means the feature could not be computed from the
// available history, which is distinct from a computed zero.
type SurgeFeatures struct {
	DeltaViews10m *float64 `json:"delta_views_10m"`
	DeltaViews30m *float64 `json:"delta_views_30m"`
	DeltaViews1h  *float64 `json:"delta_views_1h"`
	DeltaViews6h  *float64 `json:"delta_views_6h"`

	GrowthRate10m *float64 `json:"growth_rate_10m"`
	GrowthRate30m *float64 `json:"growth_rate_30m"`
	GrowthRate1h  *float64 `json:"growth_rate_1h"`
	GrowthRate6h  *float64 `json:"growth_rate_6h"`

	Acceleration10mVs30m *float64 `json:"acceleration_10m_vs_30m"`

	AgeMinutes *float64 `json:"age_minutes"`
	AgeHours   *float64 `json:"age_hours"`

	BaselineVelocity10mPerMin  *float64 `json:"baseline_velocity_10m_per_min"`
	Velocity10mPerMin          *float64 `json:"velocity_10m_per_min"`
	RatioVelocity10mToBaseline *float64 `json:"ratio_velocity_10m_to_baseline"`
}

// FeatureInput carries everything the extractor needs for one video.
type FeatureInput struct {
	Samples     []ViewSample
	PublishedAt *time.Time

	// Per-channel first-10-minute velocities (views/min) measured on the
	// channel's recent videos, used to express the current velocity as a
	// multiple of the channel's usual performance.
	ChannelBaselineVelocities10m []float64
}

const (
	window10m = 10 * time.Minute
	window30m = 30 * time.Minute
	window1h  = time.Hour
	window6h  = 6 * time.Hour
)

// ComputeSurgeFeatures derives windowed deltas, growth rates, velocity,
// acceleration, age and channel-baseline ratio from a view count series.
// It never fails: any feature whose inputs are missing stays nil.
func ComputeSurgeFeatures(in FeatureInput) SurgeFeatures {
	history := make([]ViewSample, len(in.Samples))
	copy(history, in.Samples)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp.Before(history[j].Timestamp)
	})

	var f SurgeFeatures
	if len(history) == 0 {
		return f
	}

	nowSample := history[len(history)-1]
	now := nowSample.Timestamp
	viewsNow := nowSample.ViewCount

	deltaAndGrowth := func(window time.Duration) (delta, growth, velocity *float64) {
		target := now.Add(-window)
		prev := referenceView(history, target)
		if prev == nil {
			return nil, nil, nil
		}

		d := float64(viewsNow - *prev)
		base := float64(*prev)
		if base <= 0 {
			base = 1
		}
		g := d / base

		elapsedMin := now.Sub(target).Minutes()
		if elapsedMin < 1 {
			elapsedMin = 1
		}
		v := d / elapsedMin
		return &d, &g, &v
	}

	var velocity10m *float64
	f.DeltaViews10m, f.GrowthRate10m, velocity10m = deltaAndGrowth(window10m)
	f.DeltaViews30m, f.GrowthRate30m, _ = deltaAndGrowth(window30m)
	f.DeltaViews1h, f.GrowthRate1h, _ = deltaAndGrowth(window1h)
	f.DeltaViews6h, f.GrowthRate6h, _ = deltaAndGrowth(window6h)
	f.Velocity10mPerMin = velocity10m

	if f.GrowthRate10m != nil && f.GrowthRate30m != nil {
		acc := *f.GrowthRate10m - *f.GrowthRate30m
		f.Acceleration10mVs30m = &acc
	}

	if in.PublishedAt != nil {
		ageMin := now.Sub(*in.PublishedAt).Minutes()
		if ageMin < 0 {
			ageMin = 0
		}
		ageHours := ageMin / 60
		f.AgeMinutes = &ageMin
		f.AgeHours = &ageHours
	}

	if len(in.ChannelBaselineVelocities10m) > 0 {
		sum := 0.0
		for _, v := range in.ChannelBaselineVelocities10m {
			sum += v
		}
		baseline := sum / float64(len(in.ChannelBaselineVelocities10m))
		f.BaselineVelocity10mPerMin = &baseline
		if velocity10m != nil && baseline > 0 {
			ratio := *velocity10m / baseline
			f.RatioVelocity10mToBaseline = &ratio
		}
	}

	return f
}

// referenceView returns the view count of the most recent sample at or
// before target, or nil when no sample qualifies.
func referenceView(history []ViewSample, target time.Time) *int64 {
	var ref *int64
	for i := range history {
		if history[i].Timestamp.After(target) {
			break
		}
		ref = &history[i].ViewCount
	}
	return ref
}
