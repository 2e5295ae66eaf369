package trend

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gganddabbiya/trendix-ai-server/internal/store"
	"github.com/gganddabbiya/trendix-ai-server/pkg/similarity"
)

// mapEmbedder returns pre-registered vectors per text. An unregistered
// text is an error, which exercises the fail-open paths.
type mapEmbedder struct {
	vecs  map[string][]float64
	err   error
	calls int
}

func (m *mapEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		v, ok := m.vecs[text]
		if !ok {
			return nil, fmt.Errorf("no vector registered for %q", text)
		}
		out[i] = v
	}
	return out, nil
}

func feedItem(id, title, category string, views int64) store.RankedItem {
	item := store.RankedItem{}
	item.VideoID = id
	item.Title = title
	item.Category = category
	item.ViewCount = views
	return item
}

func newFeedEngine(fs *fakeStore, embedder similarity.Embedder) *Engine {
	sim := similarity.New(embedder, nil, "general", zerolog.Nop())
	e := NewEngine(fs, sim, zerolog.Nop())
	e.SetClock(func() time.Time { return testNow })
	e.SetPriorEstimator(nil)
	return e
}

func TestGetFeatured(t *testing.T) {
	t.Run("dedup drops near-duplicate popular videos", func(t *testing.T) {
		fs := &fakeStore{popular: []store.RankedItem{
			feedItem("p1", "cat compilation", "", 100),
			feedItem("p2", "cat compilation 2", "", 90),
			feedItem("p3", "cooking asmr", "", 80),
		}}
		embedder := &mapEmbedder{vecs: map[string][]float64{
			"cat compilation":   {1, 0, 0},
			"cat compilation 2": {0.99, 0.01, 0},
			"cooking asmr":      {0, 1, 0},
		}}
		e := newFeedEngine(fs, embedder)

		f, err := e.GetFeatured(context.Background(), FeaturedOptions{LimitPopular: 2, LimitRising: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(f.Popular) != 2 {
			t.Fatalf("expected 2 popular, got %d", len(f.Popular))
		}
		if f.Popular[0].VideoID != "p1" || f.Popular[1].VideoID != "p3" {
			t.Errorf("popular = [%s %s], want [p1 p3]", f.Popular[0].VideoID, f.Popular[1].VideoID)
		}
	})

	t.Run("query merges buckets without duplicates and reranks", func(t *testing.T) {
		fs := &fakeStore{
			popular: []store.RankedItem{feedItem("a", "alpha", "", 100), feedItem("b", "beta", "", 90)},
			rising:  []store.RankedItem{feedItem("b", "beta", "", 90), feedItem("c", "gamma", "", 80)},
		}
		embedder := &mapEmbedder{vecs: map[string][]float64{
			"what is surging": {1, 0, 0},
			"alpha":           {0.5, 0.5, 0},
			"beta":            {0, 1, 0},
			"gamma":           {0.9, 0.1, 0},
		}}
		e := newFeedEngine(fs, embedder)

		f, err := e.GetFeatured(context.Background(), FeaturedOptions{Query: "what is surging"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(f.Recommended) != 3 {
			t.Fatalf("expected 3 recommended, got %d", len(f.Recommended))
		}
		wantOrder := []string{"c", "a", "b"}
		for i, id := range wantOrder {
			if f.Recommended[i].VideoID != id {
				t.Errorf("recommended[%d] = %s, want %s", i, f.Recommended[i].VideoID, id)
			}
		}
	})

	t.Run("embedding failure keeps original order", func(t *testing.T) {
		fs := &fakeStore{
			popular: []store.RankedItem{feedItem("a", "alpha", "", 100), feedItem("b", "beta", "", 90)},
			rising:  []store.RankedItem{feedItem("c", "gamma", "", 80)},
		}
		embedder := &mapEmbedder{err: fmt.Errorf("provider down")}
		e := newFeedEngine(fs, embedder)

		f, err := e.GetFeatured(context.Background(), FeaturedOptions{Query: "anything"})
		if err != nil {
			t.Fatalf("embedding failure must not fail the feed: %v", err)
		}
		if len(f.Popular) != 2 || f.Popular[0].VideoID != "a" {
			t.Errorf("popular should be unchanged, got %+v", f.Popular)
		}
		wantOrder := []string{"a", "b", "c"}
		for i, id := range wantOrder {
			if f.Recommended[i].VideoID != id {
				t.Errorf("recommended[%d] = %s, want %s", i, f.Recommended[i].VideoID, id)
			}
		}
	})

	t.Run("summary comes from category aggregates", func(t *testing.T) {
		fs := &fakeStore{categories: []store.CategoryTrend{categoryTrend("music", 1, 12.5)}}
		e := newFeedEngine(fs, nil)

		f, err := e.GetFeatured(context.Background(), FeaturedOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.Summary, "music") {
			t.Errorf("summary = %q, want the hot category named even with empty buckets", f.Summary)
		}
	})

	t.Run("popular and rising get the diversity pass", func(t *testing.T) {
		fs := &fakeStore{
			popular: []store.RankedItem{
				feedItem("1", "a", "music", 100),
				feedItem("2", "b", "music", 90),
				feedItem("3", "c", "gaming", 80),
			},
			rising: []store.RankedItem{
				feedItem("4", "d", "sports", 70),
				feedItem("5", "e", "sports", 60),
				feedItem("6", "f", "music", 50),
			},
		}
		e := newFeedEngine(fs, nil)

		f, err := e.GetFeatured(context.Background(), FeaturedOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		wantPopular := []string{"1", "3", "2"}
		for i, id := range wantPopular {
			if f.Popular[i].VideoID != id {
				t.Errorf("popular[%d] = %s, want %s", i, f.Popular[i].VideoID, id)
			}
		}
		wantRising := []string{"4", "6", "5"}
		for i, id := range wantRising {
			if f.Rising[i].VideoID != id {
				t.Errorf("rising[%d] = %s, want %s", i, f.Rising[i].VideoID, id)
			}
		}
	})

	t.Run("full deduped pool feeds the query rerank", func(t *testing.T) {
		fs := &fakeStore{
			popular: []store.RankedItem{feedItem("a", "alpha", "", 100), feedItem("b", "beta", "", 90)},
		}
		embedder := &mapEmbedder{vecs: map[string][]float64{
			"surging": {1, 0},
			"alpha":   {0, 1},
			"beta":    {1, 0},
		}}
		e := newFeedEngine(fs, embedder)

		f, err := e.GetFeatured(context.Background(), FeaturedOptions{
			Query: "surging", LimitPopular: 1, LimitRising: 1,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// b is outside the popular limit but must still reach the rerank.
		if len(f.Recommended) != 1 || f.Recommended[0].VideoID != "b" {
			t.Errorf("recommended = %+v, want [b]", f.Recommended)
		}
		if len(f.Popular) != 1 || f.Popular[0].VideoID != "a" {
			t.Errorf("popular = %+v, want [a]", f.Popular)
		}
	})

	t.Run("no embedder still assembles the feed", func(t *testing.T) {
		fs := &fakeStore{
			popular: []store.RankedItem{feedItem("a", "alpha", "music", 100)},
			rising:  []store.RankedItem{feedItem("b", "beta", "music", 90)},
		}
		e := newFeedEngine(fs, nil)

		f, err := e.GetFeatured(context.Background(), FeaturedOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(f.Popular) != 1 || len(f.Rising) != 1 {
			t.Errorf("expected 1 popular and 1 rising, got %d and %d", len(f.Popular), len(f.Rising))
		}
		if f.Summary == "" {
			t.Error("expected a summary")
		}
	})
}

func TestDiversify(t *testing.T) {
	t.Run("defers clashing categories and reinserts", func(t *testing.T) {
		items := []store.RankedItem{
			feedItem("1", "a", "music", 0),
			feedItem("2", "b", "music", 0),
			feedItem("3", "c", "music", 0),
			feedItem("4", "d", "gaming", 0),
		}

		got := diversify(items)
		wantOrder := []string{"1", "4", "2", "3"}
		for i, id := range wantOrder {
			if got[i].VideoID != id {
				t.Errorf("position %d = %s, want %s", i, got[i].VideoID, id)
			}
		}
		if len(got) != len(items) {
			t.Errorf("diversify must not drop items: got %d, want %d", len(got), len(items))
		}
	})

	t.Run("same channel clashes even across categories", func(t *testing.T) {
		a := feedItem("1", "a", "music", 0)
		a.ChannelID = "ch1"
		b := feedItem("2", "b", "gaming", 0)
		b.ChannelID = "ch1"
		c := feedItem("3", "c", "sports", 0)
		c.ChannelID = "ch2"

		got := diversify([]store.RankedItem{a, b, c})
		wantOrder := []string{"1", "3", "2"}
		for i, id := range wantOrder {
			if got[i].VideoID != id {
				t.Errorf("position %d = %s, want %s", i, got[i].VideoID, id)
			}
		}
	})

	t.Run("short lists pass through", func(t *testing.T) {
		items := []store.RankedItem{
			feedItem("1", "a", "music", 0),
			feedItem("2", "b", "music", 0),
		}
		got := diversify(items)
		if got[0].VideoID != "1" || got[1].VideoID != "2" {
			t.Errorf("short list changed: %+v", got)
		}
	})
}

func categoryTrend(category string, rank int, growth float64) store.CategoryTrend {
	return store.CategoryTrend{Category: category, Rank: &rank, GrowthRate: &growth}
}

func TestSummarize(t *testing.T) {
	t.Run("no aggregates", func(t *testing.T) {
		got := summarize(nil)
		if got != "Not enough trend data yet." {
			t.Errorf("summary = %q", got)
		}
	})

	t.Run("names rank and growth per category", func(t *testing.T) {
		got := summarize([]store.CategoryTrend{
			categoryTrend("music", 1, 12.5),
			categoryTrend("gaming", 2, 8.0),
		})
		want := "Top trending categories: music (rank 1, growth 12.5%); gaming (rank 2, growth 8.0%)."
		if got != want {
			t.Errorf("summary = %q, want %q", got, want)
		}
	})

	t.Run("caps at three categories", func(t *testing.T) {
		got := summarize([]store.CategoryTrend{
			categoryTrend("music", 1, 1),
			categoryTrend("gaming", 2, 1),
			categoryTrend("sports", 3, 1),
			categoryTrend("comedy", 4, 1),
		})
		if strings.Contains(got, "comedy") {
			t.Errorf("summary should stop at three categories: %q", got)
		}
	})

	t.Run("missing rank and growth leave a bare name", func(t *testing.T) {
		got := summarize([]store.CategoryTrend{{Category: "music"}})
		if got != "Top trending categories: music." {
			t.Errorf("summary = %q", got)
		}
	})
}
