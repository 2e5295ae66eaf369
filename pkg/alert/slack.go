package alert

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Slack posts surge alerts to a Slack incoming webhook as a Block Kit
// message: header, body section and one context line per video.
type Slack struct {
	client     *http.Client
	webhookURL string
}

func NewSlack(webhookURL string) *Slack {
	return &Slack{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Send(ctx context.Context, n *Notification) error {
	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{"type": "plain_text", "text": "🔥 " + n.Title},
		},
		{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": n.Body},
		},
	}

	for _, v := range n.TopVideos(5) {
		line := fmt.Sprintf("#%d *%s* — %s | surge %.1f | %s views",
			v.TrendingRank, v.Title, v.ChannelTitle, v.SurgeScore, compactCount(v.ViewCount))
		blocks = append(blocks, map[string]any{
			"type":     "context",
			"elements": []map[string]any{{"type": "mrkdwn", "text": line}},
		})
	}

	if err := postJSON(ctx, s.client, s.webhookURL, map[string]any{"blocks": blocks}, nil); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

// compactCount renders view counts the way video platforms do: 12.3K,
// 4.5M. Below a thousand the raw number is clearer.
func compactCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
