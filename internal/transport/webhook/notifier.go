// Package webhook delivers match notifications to a configured endpoint.
package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/foundry-app/foundry/internal/domain"
	"github.com/foundry-app/foundry/internal/metrics"
)

// Notifier posts match notifications over HTTP.
type Notifier struct {
	client *resty.Client
	url    string
}

// Config holds the webhook settings.
type Config struct {
	URL     string
	Timeout time.Duration
}

// NewNotifier creates a webhook notifier.
func NewNotifier(cfg *Config) *Notifier {
	c := resty.New().SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	return &Notifier{client: c, url: cfg.URL}
}

type notification struct {
	LostItem  domain.Item `json:"lostItem"`
	FoundItem domain.Item `json:"foundItem"`
	Score     float64     `json:"score"`
}

// Notify posts the match to the webhook. Non-2xx responses are errors so
// the resolver can log the failed delivery.
func (n *Notifier) Notify(ctx context.Context, lost, found domain.Item, score float64) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(&notification{LostItem: lost, FoundItem: found, Score: score}).
		Post(n.url)
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("notification request: %w", err)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		metrics.NotificationsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("notification status %d: %s", resp.StatusCode(), resp.String())
	}

	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	return nil
}
