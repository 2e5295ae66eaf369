package trend

import (
	"context"
	"fmt"
	"strings"

	"github.com/gganddabbiya/trendix-ai-server/internal/store"
)

// FeaturedOptions controls the featured feed assembly.
type FeaturedOptions struct {
	Platform     string
	Query        string // optional; enables the merged recommended bucket
	LimitPopular int    // default 5
	LimitRising  int    // default 5
	VelocityDays int    // default 1
}

// Featured is the assembled feed: popular and rising buckets, hot
// category rollups, an optional query-ranked recommended bucket and a
// one-line textual summary.
type Featured struct {
	Popular     []store.RankedItem    `json:"popular"`
	Rising      []store.RankedItem    `json:"rising"`
	Categories  []store.CategoryTrend `json:"categories"`
	Recommended []store.RankedItem    `json:"recommended,omitempty"`
	Summary     string                `json:"summary"`
}

// GetFeatured builds the featured feed. Both buckets are over-fetched at
// twice their limit so that near-duplicate suppression still fills them.
// With a query the full deduped lists are merged, re-ranked by similarity
// to the query and truncated into the recommended bucket; each output
// list then gets the diversity pass.
func (e *Engine) GetFeatured(ctx context.Context, opts FeaturedOptions) (*Featured, error) {
	if opts.LimitPopular <= 0 {
		opts.LimitPopular = 5
	}
	if opts.LimitRising <= 0 {
		opts.LimitRising = 5
	}
	if opts.VelocityDays <= 0 {
		opts.VelocityDays = 1
	}

	popular, err := e.store.PopularVideos(ctx, opts.LimitPopular*2, opts.Platform)
	if err != nil {
		return nil, fmt.Errorf("popular videos: %w", err)
	}
	rising, err := e.store.RisingVideos(ctx, opts.LimitRising*2, opts.VelocityDays, opts.Platform)
	if err != nil {
		return nil, fmt.Errorf("rising videos: %w", err)
	}

	popular = e.dedupItems(ctx, popular)
	rising = e.dedupItems(ctx, rising)

	categories, err := e.store.HotCategoryTrends(ctx, opts.Platform, 5)
	if err != nil {
		return nil, fmt.Errorf("hot category trends: %w", err)
	}

	out := &Featured{Categories: categories}

	if opts.Query != "" {
		merged := mergeUnique(popular, rising)
		merged = e.rerankItems(ctx, opts.Query, merged)
		merged = truncate(merged, max(opts.LimitPopular, opts.LimitRising))
		out.Recommended = diversify(merged)
	}

	out.Popular = diversify(truncate(popular, opts.LimitPopular))
	out.Rising = diversify(truncate(rising, opts.LimitRising))
	out.Summary = summarize(categories)
	return out, nil
}

// dedupItems removes near-duplicate videos while preserving order. On
// embedding failure the input comes back unchanged.
func (e *Engine) dedupItems(ctx context.Context, items []store.RankedItem) []store.RankedItem {
	if len(items) < 2 || !e.sim.Available() {
		return items
	}
	texts := make([]string, len(items))
	for i := range items {
		texts[i] = itemText(&items[i])
	}
	kept := e.sim.DedupIndices(ctx, texts)
	out := make([]store.RankedItem, 0, len(kept))
	for _, idx := range kept {
		out = append(out, items[idx])
	}
	return out
}

// rerankItems orders items by similarity to the query, keeping the
// original order when embeddings are unavailable.
func (e *Engine) rerankItems(ctx context.Context, query string, items []store.RankedItem) []store.RankedItem {
	if len(items) < 2 || !e.sim.Available() {
		return items
	}
	texts := make([]string, len(items))
	for i := range items {
		texts[i] = itemText(&items[i])
	}
	order, ok := e.sim.RerankIndices(ctx, query, texts)
	if !ok {
		return items
	}
	out := make([]store.RankedItem, 0, len(items))
	for _, idx := range order {
		out = append(out, items[idx])
	}
	return out
}

// itemText is the embedding surface of a video: title, category and a
// slice of the description.
func itemText(item *store.RankedItem) string {
	desc := item.Description
	if len(desc) > 200 {
		desc = desc[:200]
	}
	return strings.TrimSpace(item.Title + " " + item.Category + " " + desc)
}

// mergeUnique concatenates two ranked lists, skipping videos already
// present by id. Order within each list is preserved, a first.
func mergeUnique(a, b []store.RankedItem) []store.RankedItem {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]store.RankedItem, 0, len(a)+len(b))
	for _, lists := range [][]store.RankedItem{a, b} {
		for _, item := range lists {
			if seen[item.VideoID] {
				continue
			}
			seen[item.VideoID] = true
			out = append(out, item)
		}
	}
	return out
}

// diversify spreads out runs of the same category or channel without
// dropping anything: an item that clashes with the previous output item
// is deferred and reinserted at the first non-clashing position, with
// leftovers appended at the end.
func diversify(items []store.RankedItem) []store.RankedItem {
	if len(items) < 3 {
		return items
	}

	clashes := func(a, b *store.RankedItem) bool {
		if a.Category != "" && a.Category == b.Category {
			return true
		}
		return a.ChannelID != "" && a.ChannelID == b.ChannelID
	}

	out := make([]store.RankedItem, 0, len(items))
	var deferred []store.RankedItem
	place := func(item store.RankedItem) bool {
		if len(out) > 0 && clashes(&out[len(out)-1], &item) {
			return false
		}
		out = append(out, item)
		return true
	}

	for _, item := range items {
		if !place(item) {
			deferred = append(deferred, item)
			continue
		}
		// A placement may unblock earlier deferrals.
		for i := 0; i < len(deferred); {
			if place(deferred[i]) {
				deferred = append(deferred[:i], deferred[i+1:]...)
				continue
			}
			i++
		}
	}
	return append(out, deferred...)
}

func truncate(items []store.RankedItem, limit int) []store.RankedItem {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// summarize renders the top category aggregates as a one-line summary.
func summarize(categories []store.CategoryTrend) string {
	if len(categories) == 0 {
		return "Not enough trend data yet."
	}
	top := categories
	if len(top) > 3 {
		top = top[:3]
	}
	parts := make([]string, 0, len(top))
	for _, c := range top {
		desc := c.Category
		var notes []string
		if c.Rank != nil {
			notes = append(notes, fmt.Sprintf("rank %d", *c.Rank))
		}
		if c.GrowthRate != nil {
			notes = append(notes, fmt.Sprintf("growth %.1f%%", *c.GrowthRate))
		}
		if len(notes) > 0 {
			desc += " (" + strings.Join(notes, ", ") + ")"
		}
		parts = append(parts, desc)
	}
	return fmt.Sprintf("Top trending categories: %s.", strings.Join(parts, "; "))
}
