package trend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gganddabbiya/trendix-ai-server/internal/store"
)

const chatSystemPrompt = `You are a trend analyst for short-form video. Answer the user's question using ONLY the trend data provided below. Be concise and concrete: name specific videos, channels and categories from the data. If the data does not cover the question, say so instead of guessing.

%s`

// ChatOptions controls trend-grounded chat answering.
type ChatOptions struct {
	Platform     string
	VelocityDays int
}

// ChatAnswer is the result of a trend-grounded chat turn.
type ChatAnswer struct {
	Reply    string    `json:"reply"`
	Intent   string    `json:"intent"`
	Featured *Featured `json:"featured"`
}

// retrievalTopK bounds the "most relevant" block injected into the
// prompt so a large feed cannot crowd out the conversation.
const retrievalTopK = 6

// AnswerWithTrends answers the latest user message grounded in the
// current featured feed. The query drives intent classification, the
// recommended bucket and an embedding-retrieval block in the prompt.
// Every enrichment step fails open; only a missing user message or a
// store failure is an error.
func (e *Engine) AnswerWithTrends(ctx context.Context, messages []ChatMessage, opts ChatOptions) (*ChatAnswer, error) {
	query := lastUserMessage(messages)
	if query == "" {
		return nil, fmt.Errorf("chat: no user message in conversation")
	}

	intent := e.classifyIntent(ctx, query)

	featured, err := e.GetFeatured(ctx, FeaturedOptions{
		Platform:     opts.Platform,
		Query:        query,
		VelocityDays: opts.VelocityDays,
	})
	if err != nil {
		return nil, fmt.Errorf("chat featured feed: %w", err)
	}

	answer := &ChatAnswer{Intent: intent, Featured: featured}

	if len(featured.Popular) == 0 && len(featured.Rising) == 0 {
		answer.Reply = "I don't have enough trend data yet. Once video metrics have been ingested I can tell you what's popular and what's rising."
		return answer, nil
	}

	contextBlock := e.buildContext(ctx, query, featured)

	if e.replies == nil {
		answer.Reply = featured.Summary
		return answer, nil
	}

	reply, err := e.replies.GenerateReply(ctx, fmt.Sprintf(chatSystemPrompt, contextBlock), messages)
	if err != nil {
		e.log.Warn().Err(err).Msg("reply generation failed, falling back to summary")
		answer.Reply = featured.Summary
		return answer, nil
	}
	answer.Reply = reply
	return answer, nil
}

func (e *Engine) classifyIntent(ctx context.Context, query string) string {
	if e.sim == nil {
		return ""
	}
	return e.sim.Classify(ctx, query)
}

// lastUserMessage returns the content of the most recent user turn.
func lastUserMessage(messages []ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}

// buildContext renders the featured feed into the prompt's data block,
// appending an embedding-retrieval section with the entries most similar
// to the query when the provider is available.
func (e *Engine) buildContext(ctx context.Context, query string, f *Featured) string {
	var b strings.Builder

	if len(f.Popular) > 0 {
		b.WriteString("Popular videos (channel-size normalized):\n")
		for i := range f.Popular {
			writeItemLine(&b, &f.Popular[i])
		}
	}
	if len(f.Rising) > 0 {
		b.WriteString("\nRising videos (by daily view velocity):\n")
		for i := range f.Rising {
			writeItemLine(&b, &f.Rising[i])
		}
	}
	if len(f.Recommended) > 0 {
		b.WriteString("\nRecommended for this query:\n")
		for i := range f.Recommended {
			writeItemLine(&b, &f.Recommended[i])
		}
	}
	if len(f.Categories) > 0 {
		b.WriteString("\nHot categories:\n")
		for _, ct := range f.Categories {
			line := fmt.Sprintf("- %s: %d videos", ct.Category, ct.VideoCount)
			if ct.GrowthRate != nil {
				line += fmt.Sprintf(", growth %.1f%%", *ct.GrowthRate)
			}
			b.WriteString(line + "\n")
		}
	}

	if block := e.retrievalBlock(ctx, query, f); block != "" {
		b.WriteString("\n" + block)
	}

	b.WriteString("\nFeed summary: " + f.Summary)
	return b.String()
}

func writeItemLine(b *strings.Builder, item *store.RankedItem) {
	line := fmt.Sprintf("- %q by %s [%s], %d views", item.Title, item.ChannelTitle, item.Category, item.ViewCount)
	if item.ViewVelocity > 0 {
		line += fmt.Sprintf(", +%.0f views/day", item.ViewVelocity)
	}
	if item.SurgeScore > 0 {
		line += fmt.Sprintf(", surge %.1f", item.SurgeScore)
	}
	b.WriteString(line + "\n")
}

// retrievalBlock ranks every feed entry by similarity to the query and
// returns the top few as a focused context section.
func (e *Engine) retrievalBlock(ctx context.Context, query string, f *Featured) string {
	var texts []string
	items := mergeUnique(mergeUnique(f.Popular, f.Rising), f.Recommended)
	for i := range items {
		texts = append(texts, itemText(&items[i]))
	}
	for _, ct := range f.Categories {
		texts = append(texts, "category: "+ct.Category)
	}
	if len(texts) == 0 {
		return ""
	}

	sims, ok := e.sim.Similarities(ctx, query, texts)
	if !ok {
		return ""
	}

	order := make([]int, len(texts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return sims[order[i]] > sims[order[j]]
	})
	if len(order) > retrievalTopK {
		order = order[:retrievalTopK]
	}

	var b strings.Builder
	b.WriteString("Most relevant to the question:\n")
	for _, idx := range order {
		b.WriteString(fmt.Sprintf("- %s (similarity %.2f)\n", texts[idx], sims[idx]))
	}
	return b.String()
}
