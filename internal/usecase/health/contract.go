package health

import "context"

// StorePinger checks item store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// SimilarityChecker checks similarity engine availability.
type SimilarityChecker interface {
	HealthCheck(ctx context.Context) error
}
