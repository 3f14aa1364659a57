// Package similarity implements the in-process similarity engine. Items
// are embedded on registration; matching searches stored vectors of the
// opposite report type.
package similarity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/foundry-app/foundry/internal/domain"
	"github.com/foundry-app/foundry/internal/metrics"
)

const metricsDriver = "embedded"

// Engine registers items and answers nearest-neighbour queries without an
// external matching service.
type Engine struct {
	embedder Embedder
	vectors  VectorStore
}

// NewEngine creates an embedded similarity engine.
func NewEngine(embedder Embedder, vectors VectorStore) *Engine {
	return &Engine{embedder: embedder, vectors: vectors}
}

// Init prepares the vector index. Call once on startup.
func (e *Engine) Init(ctx context.Context) error {
	return e.vectors.EnsureIndex(ctx)
}

// Register embeds the item description and stores the vector. The embedded
// engine uses a single id as both external id and embedding ref.
func (e *Engine) Register(ctx context.Context, payload domain.RegisterPayload) (domain.Registration, error) {
	vec, err := e.embedder.Embed(ctx, embedText(payload))
	if err != nil {
		metrics.SimilarityRequestsTotal.WithLabelValues(metricsDriver, "register", "error").Inc()
		return domain.Registration{}, fmt.Errorf("embed item: %w", err)
	}

	id := uuid.NewString()
	if err := e.vectors.Save(ctx, id, payload.ReportType, vec); err != nil {
		metrics.SimilarityRequestsTotal.WithLabelValues(metricsDriver, "register", "error").Inc()
		return domain.Registration{}, fmt.Errorf("store embedding: %w", err)
	}

	metrics.SimilarityRequestsTotal.WithLabelValues(metricsDriver, "register", "success").Inc()
	return domain.Registration{ExternalID: id, EmbeddingRef: id}, nil
}

// FindSimilar returns up to topK candidates of the opposite report type,
// ordered by descending similarity. The queried item never appears in its
// own results.
func (e *Engine) FindSimilar(ctx context.Context, embeddingRef string, topK int) ([]domain.Candidate, error) {
	reportType, vec, err := e.vectors.Get(ctx, embeddingRef)
	if err != nil {
		metrics.SimilarityRequestsTotal.WithLabelValues(metricsDriver, "find_similar", "error").Inc()
		return nil, fmt.Errorf("load query embedding: %w", err)
	}

	candidates, err := e.vectors.SearchNearest(ctx, vec, reportType.Opposite(), topK)
	if err != nil {
		metrics.SimilarityRequestsTotal.WithLabelValues(metricsDriver, "find_similar", "error").Inc()
		return nil, fmt.Errorf("search neighbours: %w", err)
	}

	out := candidates[:0]
	for _, c := range candidates {
		if c.ExternalID == embeddingRef {
			continue
		}
		out = append(out, c)
	}

	metrics.SimilarityRequestsTotal.WithLabelValues(metricsDriver, "find_similar", "success").Inc()
	return out, nil
}

// Unregister removes a stored embedding, e.g. when its item is deleted.
func (e *Engine) Unregister(ctx context.Context, externalID string) error {
	return e.vectors.Delete(ctx, externalID)
}

// HealthCheck verifies the embedding provider is reachable.
func (e *Engine) HealthCheck(ctx context.Context) error {
	return e.embedder.HealthCheck(ctx)
}

func embedText(p domain.RegisterPayload) string {
	return fmt.Sprintf("a photo of %s at %s", p.Description, p.Location)
}
