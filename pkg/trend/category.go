package trend

import (
	"context"
	"fmt"

	"github.com/gganddabbiya/trendix-ai-server/internal/store"
)

// CategoryOptions controls the category video listing.
type CategoryOptions struct {
	CategoryID int
	Platform   string
	Limit      int // default 20
	Days       int // 0 means no recency filter
}

// VideosByCategory lists a category's recent videos enriched with
// day-over-day count changes. When the stored previous snapshot equals
// the current one, the nearest earlier snapshot with a differing view
// count supplies the baseline instead.
func (e *Engine) VideosByCategory(ctx context.Context, opts CategoryOptions) ([]store.RankedItem, error) {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}

	items, err := e.store.VideosByCategoryID(ctx, opts.CategoryID, opts.Limit, opts.Days, opts.Platform)
	if err != nil {
		return nil, fmt.Errorf("videos by category: %w", err)
	}

	now := e.now().UTC()
	for i := range items {
		item := &items[i]

		viewPrev := item.ViewCountPrev
		likePrev := item.LikeCountPrev
		commentPrev := item.CommentCountPrev

		if viewPrev == item.ViewCount && viewPrev > 0 {
			if series, err := e.store.SnapshotSeries(ctx, item.VideoID, item.Platform); err == nil {
				if alt := NearestEarlierDistinct(series, item.ViewCount, store.DateOnly(now)); alt != nil {
					viewPrev = alt.ViewCount
					likePrev = alt.LikeCount
					commentPrev = alt.CommentCount
				}
			}
		}

		item.ViewCountChange = item.ViewCount - viewPrev
		item.LikeCountChange = item.LikeCount - likePrev
		item.CommentCountChange = item.CommentCount - commentPrev
		if viewPrev > 0 {
			item.GrowthRatePercentage = roundTo(float64(item.ViewCountChange)/float64(viewPrev)*100, 1)
		}
	}

	return items, nil
}
