package match

import (
	"context"

	"github.com/foundry-app/foundry/internal/domain"
)

// SimilarityClient queries the similarity service for nearest neighbours.
type SimilarityClient interface {
	FindSimilar(ctx context.Context, embeddingRef string, topK int) ([]domain.Candidate, error)
}

// ItemStore is the slice of the item store the resolver needs: candidate
// lookup by similarity-service id, and status/match-id writes.
type ItemStore interface {
	FindByExternalID(ctx context.Context, reportType domain.ReportType, externalID string) (domain.Item, error)
	Update(ctx context.Context, id string, patch domain.Patch) (bool, error)
}

// Notifier dispatches a match notification to the lost item's reporter.
type Notifier interface {
	Notify(ctx context.Context, lost, found domain.Item, score float64) error
}
