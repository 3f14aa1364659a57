// Package matcher is the HTTP client for an external similarity matching
// service. It covers the same contract as the embedded engine: register an
// item, then query its nearest neighbours.
package matcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/foundry-app/foundry/internal/domain"
	"github.com/foundry-app/foundry/internal/metrics"
)

const metricsDriver = "matcher"

// Client talks to the matching service over HTTP.
type Client struct {
	client *resty.Client
}

// Config holds the matching service settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a matching service client.
func NewClient(cfg *Config) *Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		c.SetAuthToken(cfg.APIKey)
	}
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	return &Client{client: c}
}

type registerRequest struct {
	ImageURL    string `json:"imageUrl,omitempty"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	ReportType  string `json:"reportType"`
}

type registerResponse struct {
	ExternalID   string `json:"externalId"`
	EmbeddingRef string `json:"embeddingRef"`
}

type similarRequest struct {
	EmbeddingRef string `json:"embeddingRef"`
	TopK         int    `json:"topK"`
}

type similarResponse struct {
	Candidates []struct {
		ExternalID string  `json:"externalId"`
		Score      float64 `json:"score"`
	} `json:"candidates"`
}

// Register submits an item to the matching service.
func (c *Client) Register(ctx context.Context, payload domain.RegisterPayload) (domain.Registration, error) {
	start := time.Now()

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&registerRequest{
			ImageURL:    payload.ImageURL,
			Description: payload.Description,
			Location:    payload.Location,
			Category:    payload.Category,
			ReportType:  string(payload.ReportType),
		}).
		Post("/register")
	if err != nil {
		metrics.SimilarityRequestsTotal.WithLabelValues(metricsDriver, "register", "error").Inc()
		return domain.Registration{}, fmt.Errorf("register request: %w: %w", domain.ErrUpstream, err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		metrics.SimilarityRequestsTotal.WithLabelValues(metricsDriver, "register", "error").Inc()
		return domain.Registration{}, fmt.Errorf("register status %d: %s: %w",
			resp.StatusCode(), resp.String(), domain.ErrUpstream)
	}

	var body registerResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		metrics.SimilarityRequestsTotal.WithLabelValues(metricsDriver, "register", "error").Inc()
		return domain.Registration{}, fmt.Errorf("decode register response: %w: %w", domain.ErrUpstream, err)
	}
	if body.ExternalID == "" {
		metrics.SimilarityRequestsTotal.WithLabelValues(metricsDriver, "register", "error").Inc()
		return domain.Registration{}, fmt.Errorf("register response missing external id: %w", domain.ErrUpstream)
	}
	if body.EmbeddingRef == "" {
		body.EmbeddingRef = body.ExternalID
	}

	metrics.SimilarityRequestsTotal.WithLabelValues(metricsDriver, "register", "success").Inc()
	metrics.SimilarityRequestDuration.WithLabelValues(metricsDriver, "register").Observe(time.Since(start).Seconds())

	return domain.Registration{ExternalID: body.ExternalID, EmbeddingRef: body.EmbeddingRef}, nil
}

// FindSimilar queries up to topK nearest neighbours for a registered item.
func (c *Client) FindSimilar(ctx context.Context, embeddingRef string, topK int) ([]domain.Candidate, error) {
	start := time.Now()

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&similarRequest{EmbeddingRef: embeddingRef, TopK: topK}).
		Post("/similar")
	if err != nil {
		metrics.SimilarityRequestsTotal.WithLabelValues(metricsDriver, "find_similar", "error").Inc()
		return nil, fmt.Errorf("similar request: %w: %w", domain.ErrUpstream, err)
	}
	if resp.StatusCode() != http.StatusOK {
		metrics.SimilarityRequestsTotal.WithLabelValues(metricsDriver, "find_similar", "error").Inc()
		return nil, fmt.Errorf("similar status %d: %s: %w",
			resp.StatusCode(), resp.String(), domain.ErrUpstream)
	}

	var body similarResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		metrics.SimilarityRequestsTotal.WithLabelValues(metricsDriver, "find_similar", "error").Inc()
		return nil, fmt.Errorf("decode similar response: %w: %w", domain.ErrUpstream, err)
	}

	candidates := make([]domain.Candidate, 0, len(body.Candidates))
	for _, c := range body.Candidates {
		candidates = append(candidates, domain.Candidate{ExternalID: c.ExternalID, Score: clamp01(c.Score)})
	}

	metrics.SimilarityRequestsTotal.WithLabelValues(metricsDriver, "find_similar", "success").Inc()
	metrics.SimilarityRequestDuration.WithLabelValues(metricsDriver, "find_similar").Observe(time.Since(start).Seconds())

	return candidates, nil
}

// clamp01 keeps scores inside [0, 1] regardless of what the service sends.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// HealthCheck verifies the matching service is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("health request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("health status %d", resp.StatusCode())
	}
	return nil
}
