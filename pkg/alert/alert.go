package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gganddabbiya/trendix-ai-server/internal/store"
)

// Notification is a surge alert sent to configured destinations: the
// videos that crossed the surge threshold in the latest ranking pass.
type Notification struct {
	Title    string             `json:"title"`
	Body     string             `json:"body"`
	Platform string             `json:"platform"`
	Videos   []store.RankedItem `json:"videos"`
}

// TopVideos returns at most k videos from the notification, in rank
// order. Notifier payloads cap their video lists with this.
func (n *Notification) TopVideos(k int) []store.RankedItem {
	if len(n.Videos) < k {
		k = len(n.Videos)
	}
	return n.Videos[:k]
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers. Failures
// are collected per notifier so one broken destination does not stop
// the others.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// postJSON marshals payload and POSTs it, applying any extra headers.
// Non-2xx responses are errors.
func postJSON(ctx context.Context, client *http.Client, url string, payload any, headers func([]byte) map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if headers != nil {
		for k, v := range headers(body) {
			req.Header.Set(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
