package alert

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"
)

// Webhook delivers the raw notification JSON to a generic HTTP
// endpoint. With a shared secret the body is signed so the receiver
// can verify the sender.
type Webhook struct {
	client *http.Client
	url    string
	secret string
}

func NewWebhook(url, secret string) *Webhook {
	return &Webhook{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		secret: secret,
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Send(ctx context.Context, n *Notification) error {
	if err := postJSON(ctx, w.client, w.url, n, w.headers); err != nil {
		return fmt.Errorf("surge webhook: %w", err)
	}
	return nil
}

func (w *Webhook) headers(body []byte) map[string]string {
	h := map[string]string{"User-Agent": "trendix/1.0"}
	if w.secret != "" {
		mac := hmac.New(sha256.New, []byte(w.secret))
		mac.Write(body)
		h["X-Signature-256"] = "sha256=" + hex.EncodeToString(mac.Sum(nil))
	}
	return h
}
