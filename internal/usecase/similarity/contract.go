package similarity

import (
	"context"

	"github.com/foundry-app/foundry/internal/domain"
)

// Embedder vectorizes item descriptions.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	HealthCheck(ctx context.Context) error
}

// VectorStore persists embeddings and answers nearest-neighbour queries.
type VectorStore interface {
	EnsureIndex(ctx context.Context) error
	Save(ctx context.Context, externalID string, reportType domain.ReportType, vector []float32) error
	Get(ctx context.Context, externalID string) (domain.ReportType, []float32, error)
	SearchNearest(ctx context.Context, vector []float32, reportType domain.ReportType, k int) ([]domain.Candidate, error)
	Delete(ctx context.Context, externalID string) error
}
