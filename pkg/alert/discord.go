package alert

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Discord posts surge alerts to a Discord webhook as a single embed
// with one field per surging video.
type Discord struct {
	client     *http.Client
	webhookURL string
}

func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n *Notification) error {
	var fields []map[string]any
	for _, v := range n.TopVideos(5) {
		fields = append(fields, map[string]any{
			"name": fmt.Sprintf("#%d %s", v.TrendingRank, v.Title),
			"value": fmt.Sprintf("%s · surge %.1f · %s views",
				v.ChannelTitle, v.SurgeScore, compactCount(v.ViewCount)),
			"inline": false,
		})
	}

	payload := map[string]any{
		"embeds": []map[string]any{{
			"title":       "🔥 " + n.Title,
			"description": n.Body,
			"fields":      fields,
			"color":       0xFF6600,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		}},
	}

	if err := postJSON(ctx, d.client, d.webhookURL, payload, nil); err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}
