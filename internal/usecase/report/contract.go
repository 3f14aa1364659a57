package report

import (
	"context"

	"github.com/foundry-app/foundry/internal/domain"
	"github.com/foundry-app/foundry/internal/usecase/match"
)

// Store is the item store slice the report service needs.
type Store interface {
	Insert(ctx context.Context, item domain.Item) (domain.Item, error)
	GetByID(ctx context.Context, id string) (domain.Item, error)
	Update(ctx context.Context, id string, patch domain.Patch) (bool, error)
	Delete(ctx context.Context, id string) (domain.Item, error)
}

// SimilarityClient registers items with the similarity service.
type SimilarityClient interface {
	Register(ctx context.Context, payload domain.RegisterPayload) (domain.Registration, error)
}

// Resolver pairs a registered found item with open lost reports.
type Resolver interface {
	Resolve(ctx context.Context, found domain.Item, embeddingRef string) match.Report
}
